package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

const unclassifiedFolder = "no_clasificados"

const maxSegmentLen = 50

// accentFold maps the accented letters common in Spanish theme names onto
// plain ASCII so folder names stay portable.
var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U", "Ñ", "N",
)

// OrganizeUseCase copies classified PDFs into a folder tree derived from
// their assigned themes. Files without a usable theme, and files the model
// never accounted for, land in a no_clasificados bucket so the destination
// always covers the whole source folder.
type OrganizeUseCase struct {
	logger *slog.Logger
}

func NewOrganizeUseCase(logger *slog.Logger) *OrganizeUseCase {
	return &OrganizeUseCase{logger: logger}
}

// Organize places every record's file under destRoot and sweeps source PDFs
// missing from records into the unclassified bucket. Per-file failures are
// counted, not fatal. Re-running over the same inputs overwrites the copies
// already present and yields the same tree.
func (uc *OrganizeUseCase) Organize(
	ctx context.Context,
	records []domain.Record,
	sourceFolder string,
	destRoot string,
) (domain.OrganizationOutcome, error) {
	var outcome domain.OrganizationOutcome

	info, err := os.Stat(sourceFolder)
	if err != nil {
		return outcome, domain.WrapError(domain.ErrInvalidInput, "organize files", err)
	}
	if !info.IsDir() {
		return outcome, domain.WrapError(domain.ErrInvalidInput, "organize files",
			fmt.Errorf("%q is not a directory", sourceFolder))
	}
	if destRoot == "" {
		destRoot = sourceFolder + "_clasificado"
	}

	created := make(map[string]struct{})
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return outcome, fmt.Errorf("organization interrupted: %w", err)
		}
		if rec.Archivo == "" {
			uc.logger.Warn("record_without_filename", "documento", rec.Documento)
			outcome.Errors++
			continue
		}
		seen[rec.Archivo] = struct{}{}

		src := filepath.Join(sourceFolder, rec.Archivo)
		if _, err := os.Stat(src); err != nil {
			uc.logger.Warn("source_file_missing", "file", rec.Archivo, "error", err)
			outcome.Errors++
			continue
		}

		dest := uc.destinationDir(destRoot, rec)
		if err := uc.place(src, dest, rec.Archivo, created); err != nil {
			uc.logger.Warn("file_copy_failed", "file", rec.Archivo, "dest", dest, "error", err)
			outcome.Errors++
			continue
		}
		if filepath.Base(dest) == unclassifiedFolder {
			outcome.Unclassified++
		} else {
			outcome.Organized++
		}
	}

	// Sweep: any PDF in the source the records never mentioned still gets
	// a home in the unclassified bucket.
	leftovers, err := listPDFs(sourceFolder)
	if err != nil {
		return outcome, fmt.Errorf("scan source folder: %w", err)
	}
	for _, doc := range leftovers {
		if _, ok := seen[doc.Name]; ok {
			continue
		}
		uc.logger.Warn("file_not_in_results", "file", doc.Name)
		dest := filepath.Join(destRoot, unclassifiedFolder)
		if err := uc.place(doc.Path, dest, doc.Name, created); err != nil {
			uc.logger.Warn("file_copy_failed", "file", doc.Name, "dest", dest, "error", err)
			outcome.Errors++
			continue
		}
		outcome.Unclassified++
	}

	outcome.FoldersCreated = len(created)
	uc.logger.Info("organization_finished",
		"dest", destRoot,
		"organized", outcome.Organized,
		"unclassified", outcome.Unclassified,
		"errors", outcome.Errors,
		"folders_created", outcome.FoldersCreated)
	return outcome, nil
}

// destinationDir resolves the theme folder for a record. Placeholder themes
// fall through to the unclassified bucket; a real subtheme adds one level.
func (uc *OrganizeUseCase) destinationDir(destRoot string, rec domain.Record) string {
	if rec.Unclassifiable() {
		return filepath.Join(destRoot, unclassifiedFolder)
	}
	dir := filepath.Join(destRoot, sanitizeSegment(rec.TemaGeneral))
	if !domain.IsPlaceholderTheme(rec.Subtema) {
		dir = filepath.Join(dir, sanitizeSegment(rec.Subtema))
	}
	return dir
}

func (uc *OrganizeUseCase) place(src, destDir, name string, created map[string]struct{}) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create folder %q: %w", destDir, err)
	}
	created[destDir] = struct{}{}
	return copyFile(src, filepath.Join(destDir, name))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// sanitizeSegment turns a model-provided theme into a safe folder name:
// accents folded to ASCII, anything outside letters and digits dropped,
// whitespace runs joined with single underscores, words title-cased and the
// whole segment capped at 50 characters.
func sanitizeSegment(theme string) string {
	folded := accentFold.Replace(strings.TrimSpace(theme))

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '-', r == '_', r == '/':
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	segment := strings.Join(words, "_")
	if segment == "" {
		return "Otros"
	}
	if len(segment) > maxSegmentLen {
		segment = strings.TrimRight(segment[:maxSegmentLen], "_")
	}
	return segment
}
