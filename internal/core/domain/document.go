package domain

// Document is a source PDF discovered during a folder scan. It is referenced,
// never owned, by the downstream stages.
type Document struct {
	Path string
	Name string
}

// ExtractedText is the bounded leading text of one document. Length is capped
// by the extractor; whether the text is usable is the caller's decision.
type ExtractedText struct {
	Filename string
	Text     string
	Chars    int
}

// BatchItem is one (text, filename) pair submitted to the classifier.
type BatchItem struct {
	Filename string
	Text     string
}

// StagedFile records where a file collected into the staging folder came from.
type StagedFile struct {
	OriginalPath string `json:"original_path"`
	RelativePath string `json:"relative_path"`
	ParentFolder string `json:"parent_folder"`
	OriginalName string `json:"original_name"`
}

// TranslationTable maps staged temp names back to their origins. Reverse
// indexes original absolute paths so lookup works in both directions.
type TranslationTable struct {
	Entries map[string]StagedFile `json:"entries"`
	Reverse map[string]string     `json:"reverse"`
}
