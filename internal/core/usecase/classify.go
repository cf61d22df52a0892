package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
	"github.com/Heliazer/duply-v6-cli/internal/core/ports"
)

// ClassifyOptions tunes a classification run.
type ClassifyOptions struct {
	// BatchSize is the number of documents sent to the model per request.
	BatchSize int
	// BatchPause is the minimum delay between consecutive model calls.
	BatchPause time.Duration
	// MinUsableChars is the minimum extracted text length for a document
	// to be worth classifying.
	MinUsableChars int
	// Organize moves classified files into theme folders after the run.
	Organize bool
	// OrganizedFolder overrides the destination root for organized files.
	// Empty means a sibling of the source folder named <source>_clasificado.
	OrganizedFolder string
}

// ClassifyFolderUseCase runs the full pipeline over one folder: scan,
// extract, classify in batches, persist results and optionally organize
// the source files by assigned theme.
type ClassifyFolderUseCase struct {
	extractor  ports.TextExtractor
	classifier ports.BatchClassifier
	store      ports.ResultStore
	archive    ports.RunArchive
	organizer  ports.FileOrganizer
	observer   ports.PipelineObserver
	logger     *slog.Logger
	opts       ClassifyOptions
}

// NewClassifyFolderUseCase wires the pipeline. archive, organizer and
// observer may be nil; the corresponding stages are skipped.
func NewClassifyFolderUseCase(
	extractor ports.TextExtractor,
	classifier ports.BatchClassifier,
	store ports.ResultStore,
	archive ports.RunArchive,
	organizer ports.FileOrganizer,
	observer ports.PipelineObserver,
	logger *slog.Logger,
	opts ClassifyOptions,
) *ClassifyFolderUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.MinUsableChars <= 0 {
		opts.MinUsableChars = 50
	}
	return &ClassifyFolderUseCase{
		extractor:  extractor,
		classifier: classifier,
		store:      store,
		archive:    archive,
		organizer:  organizer,
		observer:   observer,
		logger:     logger,
		opts:       opts,
	}
}

// ClassifyFolder processes every PDF directly inside folder and returns the
// run statistics. Individual document and batch failures are absorbed into
// the statistics; only input and persistence problems abort the run.
func (uc *ClassifyFolderUseCase) ClassifyFolder(ctx context.Context, folder string) (domain.FolderStats, error) {
	stats := domain.FolderStats{
		RunID:     uuid.NewString(),
		Folder:    folder,
		StartedAt: time.Now(),
	}

	info, err := os.Stat(folder)
	if err != nil {
		return stats, domain.WrapError(domain.ErrInvalidInput, "classify folder", err)
	}
	if !info.IsDir() {
		return stats, domain.WrapError(domain.ErrInvalidInput, "classify folder",
			fmt.Errorf("%q is not a directory", folder))
	}

	docs, err := listPDFs(folder)
	if err != nil {
		return stats, domain.WrapError(domain.ErrInvalidInput, "classify folder", err)
	}
	stats.TotalFiles = len(docs)
	if len(docs) == 0 {
		uc.logger.Warn("no_pdfs_found", "folder", folder, "run_id", stats.RunID)
		stats.FinishedAt = time.Now()
		return stats, nil
	}

	uc.logger.Info("classification_started",
		"run_id", stats.RunID,
		"folder", folder,
		"total_files", stats.TotalFiles,
		"batch_size", uc.opts.BatchSize)

	limiter := rate.NewLimiter(rate.Every(uc.opts.BatchPause), 1)

	var results []domain.Record
	batches := makeBatches(docs, uc.opts.BatchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("classification interrupted: %w", err)
		}
		batchResults := uc.processBatch(ctx, limiter, i+1, batch, &stats)
		results = append(results, batchResults...)
	}
	stats.FinishedAt = time.Now()

	sessionStamp := stats.StartedAt.Format("20060102_150405")
	artifacts, err := uc.store.Save(ctx, sessionStamp, results)
	if err != nil {
		return stats, fmt.Errorf("save results: %w", err)
	}
	if artifacts.JSONPath != "" {
		uc.logger.Info("results_saved",
			"run_id", stats.RunID,
			"json", artifacts.JSONPath,
			"csv", artifacts.CSVPath)
	}

	if uc.archive != nil {
		if err := uc.archive.ArchiveRun(ctx, stats, results); err != nil {
			uc.logger.Warn("run_archive_failed", "run_id", stats.RunID, "error", err)
		}
	}

	if uc.opts.Organize && uc.organizer != nil {
		destRoot := uc.opts.OrganizedFolder
		if destRoot == "" {
			destRoot = folder + "_clasificado"
		}
		outcome, err := uc.organizer.Organize(ctx, results, folder, destRoot)
		if err != nil {
			return stats, fmt.Errorf("organize files: %w", err)
		}
		stats.Organization = &outcome
	}

	uc.logger.Info("classification_finished",
		"run_id", stats.RunID,
		"total_files", stats.TotalFiles,
		"processed", stats.Processed,
		"errors", stats.Errors,
		"coverage_gaps", stats.CoverageGaps,
		"success_rate", stats.SuccessRate())
	return stats, nil
}

// processBatch extracts and classifies one batch. Failures never propagate;
// they are logged and folded into stats.
func (uc *ClassifyFolderUseCase) processBatch(
	ctx context.Context,
	limiter *rate.Limiter,
	number int,
	batch []domain.Document,
	stats *domain.FolderStats,
) []domain.Record {
	items := make([]domain.BatchItem, 0, len(batch))
	for _, doc := range batch {
		extracted, err := uc.extractor.Extract(ctx, doc.Path)
		if err != nil {
			uc.logger.Warn("extraction_failed", "file", doc.Name, "error", err)
			uc.documentFinished("extraction_failed")
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(extracted.Text)) <= uc.opts.MinUsableChars {
			uc.logger.Warn("insufficient_text",
				"file", doc.Name,
				"chars", extracted.Chars,
				"min_chars", uc.opts.MinUsableChars)
			uc.documentFinished("insufficient_text")
			continue
		}
		items = append(items, domain.BatchItem{Filename: doc.Name, Text: extracted.Text})
	}

	if len(items) == 0 {
		uc.logger.Warn("batch_skipped_no_usable_text", "batch", number, "files", len(batch))
		uc.batchFinished("skipped", 0)
		return nil
	}

	if err := limiter.Wait(ctx); err != nil {
		uc.logger.Warn("batch_aborted", "batch", number, "error", err)
		uc.batchFinished("aborted", 0)
		stats.Errors += len(items)
		return nil
	}

	started := time.Now()
	records, err := uc.classifier.ClassifyBatch(ctx, items)
	elapsed := time.Since(started).Seconds()
	if err != nil {
		uc.logger.Error("batch_classification_failed",
			"batch", number,
			"files", len(items),
			"error", err)
		uc.batchFinished("error", elapsed)
		for range items {
			uc.documentFinished("batch_failed")
		}
		stats.Errors += len(items)
		return nil
	}
	uc.batchFinished("success", elapsed)

	return uc.reconcile(number, items, records, stats)
}

// reconcile pairs model output with the batch items that produced it. A
// record whose archivo echoes a batch filename wins over its position;
// position is the fallback when the echo is absent or unknown. Items left
// without a record are coverage gaps.
func (uc *ClassifyFolderUseCase) reconcile(
	number int,
	items []domain.BatchItem,
	records []domain.Record,
	stats *domain.FolderStats,
) []domain.Record {
	byName := make(map[string]int, len(records))
	for i, rec := range records {
		if _, dup := byName[rec.Archivo]; rec.Archivo != "" && !dup {
			byName[rec.Archivo] = i
		}
	}
	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		known[item.Filename] = struct{}{}
	}

	claimed := make([]bool, len(records))
	now := time.Now()
	out := make([]domain.Record, 0, len(items))
	for i, item := range items {
		idx := -1
		if j, ok := byName[item.Filename]; ok && !claimed[j] {
			idx = j
			if j != i {
				uc.logger.Warn("record_position_mismatch",
					"batch", number,
					"file", item.Filename,
					"expected_position", i,
					"actual_position", j)
			}
		} else if i < len(records) && !claimed[i] {
			if _, echoKnown := known[records[i].Archivo]; !echoKnown {
				idx = i
				if records[i].Archivo != "" {
					uc.logger.Warn("record_echo_unrecognized",
						"batch", number,
						"file", item.Filename,
						"echoed", records[i].Archivo)
				}
			}
		}
		if idx < 0 {
			uc.logger.Warn("record_missing_for_file", "batch", number, "file", item.Filename)
			uc.documentFinished("coverage_gap")
			stats.CoverageGaps++
			continue
		}
		claimed[idx] = true
		rec := records[idx]
		rec.Archivo = item.Filename
		rec.Timestamp = now
		out = append(out, rec)
		stats.Processed++
		uc.documentFinished("classified")
	}
	return out
}

func (uc *ClassifyFolderUseCase) batchFinished(status string, seconds float64) {
	if uc.observer != nil {
		uc.observer.BatchFinished(status, seconds)
	}
}

func (uc *ClassifyFolderUseCase) documentFinished(status string) {
	if uc.observer != nil {
		uc.observer.DocumentFinished(status)
	}
}
