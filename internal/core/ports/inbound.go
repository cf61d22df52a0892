package ports

import (
	"context"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// FolderClassifier is the inbound contract for classifying a folder of PDFs.
type FolderClassifier interface {
	ClassifyFolder(ctx context.Context, folder string) (domain.FolderStats, error)
}

// FileOrganizer relocates files according to a persisted result set.
type FileOrganizer interface {
	Organize(ctx context.Context, records []domain.Record, sourceFolder, destRoot string) (domain.OrganizationOutcome, error)
}

// TreeCollector flattens a directory tree of PDFs into a staging folder.
type TreeCollector interface {
	Collect(ctx context.Context, root string) (domain.TranslationTable, error)
	Cleanup() error
}
