package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// TranslationTableFile is the name of the mapping file written alongside
// the staged copies.
const TranslationTableFile = "path_translation.json"

// CollectTreeUseCase flattens a folder tree into a single staging folder so
// the batch pipeline, which only reads one level, can process PDFs scattered
// across subfolders. Staged names carry a running index plus the sanitized
// relative path, which keeps duplicate basenames from distinct subfolders
// apart, and a translation table records how to get back to the originals.
type CollectTreeUseCase struct {
	stagingDir string
	logger     *slog.Logger
}

func NewCollectTreeUseCase(stagingDir string, logger *slog.Logger) *CollectTreeUseCase {
	return &CollectTreeUseCase{stagingDir: stagingDir, logger: logger}
}

// Collect walks root recursively, copies every PDF into the staging folder
// and returns the translation table. Unreadable files are logged and
// skipped; the table is also persisted next to the copies.
func (uc *CollectTreeUseCase) Collect(ctx context.Context, root string) (domain.TranslationTable, error) {
	table := domain.TranslationTable{
		Entries: make(map[string]domain.StagedFile),
		Reverse: make(map[string]string),
	}

	info, err := os.Stat(root)
	if err != nil {
		return table, domain.WrapError(domain.ErrInvalidInput, "collect tree", err)
	}
	if !info.IsDir() {
		return table, domain.WrapError(domain.ErrInvalidInput, "collect tree",
			fmt.Errorf("%q is not a directory", root))
	}
	if err := os.MkdirAll(uc.stagingDir, 0o755); err != nil {
		return table, fmt.Errorf("create staging folder: %w", err)
	}

	index := 0
	walkErr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			uc.logger.Warn("walk_entry_failed", "path", path, "error", err)
			return nil
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			return nil
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			uc.logger.Warn("skipping_irregular_entry", "path", path)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = entry.Name()
		}
		index++
		staged := fmt.Sprintf("%04d_%s.pdf", index, sanitizeRelPath(rel))
		if err := copyFile(path, filepath.Join(uc.stagingDir, staged)); err != nil {
			uc.logger.Warn("stage_copy_failed", "file", path, "error", err)
			index--
			return nil
		}

		table.Entries[staged] = domain.StagedFile{
			OriginalPath: path,
			RelativePath: rel,
			ParentFolder: filepath.Base(filepath.Dir(path)),
			OriginalName: entry.Name(),
		}
		table.Reverse[path] = staged
		return nil
	})
	if walkErr != nil {
		return table, fmt.Errorf("walk %q: %w", root, walkErr)
	}

	if err := uc.saveTable(table); err != nil {
		return table, err
	}
	uc.logger.Info("tree_collected",
		"root", root,
		"staged_files", len(table.Entries),
		"staging_dir", uc.stagingDir)
	return table, nil
}

// Cleanup removes the staging folder and everything in it.
func (uc *CollectTreeUseCase) Cleanup() error {
	if err := os.RemoveAll(uc.stagingDir); err != nil {
		return fmt.Errorf("remove staging folder: %w", err)
	}
	return nil
}

func (uc *CollectTreeUseCase) saveTable(table domain.TranslationTable) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode translation table: %w", err)
	}
	path := filepath.Join(uc.stagingDir, TranslationTableFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write translation table: %w", err)
	}
	return nil
}

// sanitizeRelPath flattens a relative path into a staged-name fragment:
// separators become underscores, the .pdf extension is dropped and anything
// outside letters, digits, dot, dash and underscore is removed.
func sanitizeRelPath(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.ReplaceAll(rel, string(filepath.Separator), "_")

	var b strings.Builder
	for _, r := range accentFold.Replace(rel) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 120 {
		out = out[:120]
	}
	if out == "" {
		out = "documento"
	}
	return out
}
