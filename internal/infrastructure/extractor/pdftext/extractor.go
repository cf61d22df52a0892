package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// Extractor reads the leading text of a PDF, bounded by a page cap and a
// character cap.
type Extractor struct {
	maxPages       int
	maxChars       int
	shortTextChars int
	logger         *slog.Logger
}

func New(maxPages, maxChars, shortTextChars int, logger *slog.Logger) *Extractor {
	if maxPages <= 0 {
		maxPages = 20
	}
	if maxChars <= 0 {
		maxChars = 15000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		maxPages:       maxPages,
		maxChars:       maxChars,
		shortTextChars: shortTextChars,
		logger:         logger,
	}
}

// Extract concatenates text from pages 1..min(pageCount, maxPages) and
// truncates to the character cap. An unreadable document is an error the
// caller treats as a per-document soft failure. Short extracted text is
// warned about but still returned; discarding it is downstream policy.
func (e *Extractor) Extract(ctx context.Context, path string) (domain.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractedText{}, err
	}

	name := filepath.Base(path)
	f, reader, err := pdf.Open(path)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("open pdf %q: %w", name, err)
	}
	defer f.Close()

	pages := reader.NumPage()
	if pages > e.maxPages {
		pages = e.maxPages
	}

	var builder strings.Builder
	for i := 1; i <= pages; i++ {
		text, err := pageText(reader, i)
		if err != nil {
			e.logger.Warn("page_extract_failed", "file", name, "page", i, "error", err)
			continue
		}
		builder.WriteString(text)
		if utf8.RuneCountInString(builder.String()) >= e.maxChars {
			break
		}
	}

	text := truncateRunes(builder.String(), e.maxChars)
	chars := utf8.RuneCountInString(text)

	if utf8.RuneCountInString(strings.TrimSpace(text)) < e.shortTextChars {
		e.logger.Warn("short_text_extracted", "file", name, "chars", chars)
	}

	return domain.ExtractedText{Filename: name, Text: text, Chars: chars}, nil
}

// pageText isolates the library call so a panic on a corrupt xref table stays
// a per-page failure.
func pageText(reader *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library panic on page %d: %v", pageNum, r)
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
