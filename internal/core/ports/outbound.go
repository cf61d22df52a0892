package ports

import (
	"context"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// TextExtractor reads bounded leading text from a document on disk.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (domain.ExtractedText, error)
}

// BatchClassifier submits one batch to the model and returns the decoded
// records. Arrays shorter or longer than the input are returned as-is;
// reconciliation is the caller's job.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, items []domain.BatchItem) ([]domain.Record, error)
}

// ResultStore persists and reloads classification result sets.
type ResultStore interface {
	Save(ctx context.Context, sessionStamp string, records []domain.Record) (domain.SavedArtifacts, error)
	Load(ctx context.Context, path string) ([]domain.Record, error)
}

// RunArchive keeps run summaries and records in durable storage. Optional:
// the engine tolerates a nil archive.
type RunArchive interface {
	ArchiveRun(ctx context.Context, stats domain.FolderStats, records []domain.Record) error
}

// PipelineObserver receives per-unit outcomes for metrics.
type PipelineObserver interface {
	BatchFinished(status string, seconds float64)
	DocumentFinished(status string)
}
