package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Heliazer/duply-v6-cli/internal/config"
	"github.com/Heliazer/duply-v6-cli/internal/core/ports"
	"github.com/Heliazer/duply-v6-cli/internal/core/usecase"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/extractor/pdftext"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/llm/gemini"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/repository/postgres"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/resilience"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/store/results"
	"github.com/Heliazer/duply-v6-cli/internal/observability/logging"
	"github.com/Heliazer/duply-v6-cli/internal/observability/metrics"
)

const serviceName = "duply-v6-cli"

// App holds the wired components of one process. Build it with New and
// release resources with Close.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.PipelineMetrics
	Pipeline  *usecase.ClassifyFolderUseCase
	Organizer *usecase.OrganizeUseCase
	Collector *usecase.CollectTreeUseCase

	db *sql.DB
}

// Options adjusts per-invocation wiring on top of the loaded config.
type Options struct {
	Organize        bool
	OrganizedFolder string
}

// New wires the classification pipeline from configuration. The Postgres
// archive is attached only when a DSN is configured; the pipeline runs fine
// without it.
func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)

	extractor := pdftext.New(cfg.MaxPages, cfg.MaxChars, cfg.ShortTextChars, logger)

	codec, err := gemini.NewCodec(logger)
	if err != nil {
		return nil, fmt.Errorf("build response codec: %w", err)
	}
	client := gemini.New(cfg.GeminiURL, cfg.GeminiModel, cfg.GeminiAPIKey)
	exec := gemini.NewExecutor(resilience.DefaultConfig(), logger)
	classifier := gemini.NewBatchClassifier(client, codec, exec, logger)

	store, err := results.New(cfg.OutputDir, cfg.ExportXLSX, logger)
	if err != nil {
		return nil, fmt.Errorf("prepare results store: %w", err)
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Metrics:   pipelineMetrics,
		Organizer: usecase.NewOrganizeUseCase(logger),
		Collector: usecase.NewCollectTreeUseCase(cfg.StagingDir, logger),
	}

	var archive ports.RunArchive
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := postgres.NewRunRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		app.db = db
		archive = repo
		logger.Info("run_archive_enabled")
	}

	app.Pipeline = usecase.NewClassifyFolderUseCase(
		extractor,
		classifier,
		store,
		archive,
		app.Organizer,
		pipelineMetrics,
		logger,
		usecase.ClassifyOptions{
			BatchSize:       cfg.BatchSize,
			BatchPause:      time.Duration(cfg.BatchPauseSeconds) * time.Second,
			MinUsableChars:  cfg.MinUsableChars,
			Organize:        opts.Organize,
			OrganizedFolder: opts.OrganizedFolder,
		},
	)
	return app, nil
}

// Close releases pooled resources. Safe to call when nothing was opened.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
