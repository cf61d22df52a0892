package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// listPDFs returns the immediate regular files of folder whose extension is
// .pdf, case-insensitively, in enumeration order.
func listPDFs(folder string) ([]domain.Document, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read folder %q: %w", folder, err)
	}

	var docs []domain.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		docs = append(docs, domain.Document{
			Path: filepath.Join(folder, entry.Name()),
			Name: entry.Name(),
		})
	}
	return docs, nil
}

// makeBatches partitions docs into contiguous batches of at most size items,
// preserving relative order. The final batch may be smaller.
func makeBatches(docs []domain.Document, size int) [][]domain.Document {
	if size <= 0 {
		size = 1
	}
	var batches [][]domain.Document
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		batches = append(batches, docs[start:end])
	}
	return batches
}
