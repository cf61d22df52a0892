package domain

import (
	"strings"
	"time"
)

type Confidence string

const (
	ConfidenceAlta  Confidence = "alta"
	ConfidenceMedia Confidence = "media"
	ConfidenceBaja  Confidence = "baja"
)

// NormalizeConfidence maps model output onto the known levels. Anything
// unrecognized degrades to baja rather than failing the record.
func NormalizeConfidence(raw string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(raw))) {
	case ConfidenceAlta:
		return ConfidenceAlta
	case ConfidenceMedia:
		return ConfidenceMedia
	default:
		return ConfidenceBaja
	}
}

// Record is the classification of one document. JSON field names match the
// persisted artifact format.
type Record struct {
	Documento      int        `json:"documento"`
	Archivo        string     `json:"archivo"`
	TemaGeneral    string     `json:"tema_general"`
	Subtema        string     `json:"subtema,omitempty"`
	TemaEspecifico string     `json:"tema_especifico"`
	Confianza      Confidence `json:"confianza"`
	PalabrasClave  []string   `json:"palabras_clave"`
	Timestamp      time.Time  `json:"timestamp"`
}

var placeholderThemes = map[string]struct{}{
	"":     {},
	"n/a":  {},
	"na":   {},
	"none": {},
	"null": {},
}

// IsPlaceholderTheme reports whether a theme value carries no usable
// classification signal.
func IsPlaceholderTheme(theme string) bool {
	_, ok := placeholderThemes[strings.ToLower(strings.TrimSpace(theme))]
	return ok
}

// Unclassifiable reports whether the record lacks a usable general theme.
func (r Record) Unclassifiable() bool {
	return IsPlaceholderTheme(r.TemaGeneral)
}

// FolderStats summarizes one classification run over a folder.
type FolderStats struct {
	RunID        string    `json:"run_id"`
	Folder       string    `json:"folder"`
	TotalFiles   int       `json:"total_files"`
	Processed    int       `json:"processed"`
	Errors       int       `json:"errors"`
	CoverageGaps int       `json:"coverage_gaps"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`

	Organization *OrganizationOutcome `json:"organization,omitempty"`
}

// SuccessRate is processed/total*100, zero for an empty folder.
func (s FolderStats) SuccessRate() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return float64(s.Processed) / float64(s.TotalFiles) * 100
}

// OrganizationOutcome summarizes one organizer run.
type OrganizationOutcome struct {
	Organized      int `json:"successfully_organized"`
	Unclassified   int `json:"moved_to_unclassified"`
	Errors         int `json:"errors"`
	FoldersCreated int `json:"folders_created"`
}

// SavedArtifacts lists the files a ResultStore produced for one session.
type SavedArtifacts struct {
	JSONPath string
	CSVPath  string
	XLSXPath string
}
