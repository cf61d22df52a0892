package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

// RunRepository archives classification runs. The file artifacts stay
// canonical; this is durable history for querying past sessions.
type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent classifier startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS classification_runs (
	id TEXT PRIMARY KEY,
	folder TEXT NOT NULL,
	total_files INTEGER NOT NULL,
	processed INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	coverage_gaps INTEGER NOT NULL DEFAULT 0,
	success_rate DOUBLE PRECISION NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS classification_records (
	run_id TEXT NOT NULL REFERENCES classification_runs(id) ON DELETE CASCADE,
	documento INTEGER NOT NULL,
	archivo TEXT NOT NULL,
	tema_general TEXT NOT NULL,
	subtema TEXT,
	tema_especifico TEXT,
	confianza TEXT NOT NULL,
	palabras_clave JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, documento, archivo)
);

CREATE INDEX IF NOT EXISTS idx_classification_records_archivo ON classification_records(archivo);
CREATE INDEX IF NOT EXISTS idx_classification_runs_started_at ON classification_runs(started_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) ArchiveRun(ctx context.Context, stats domain.FolderStats, records []domain.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO classification_runs (
	id, folder, total_files, processed, errors, coverage_gaps, success_rate, started_at, finished_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		stats.RunID, stats.Folder, stats.TotalFiles, stats.Processed, stats.Errors,
		stats.CoverageGaps, stats.SuccessRate(), stats.StartedAt, stats.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, record := range records {
		keywordsJSON, err := json.Marshal(record.PalabrasClave)
		if err != nil {
			return fmt.Errorf("marshal keywords: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO classification_records (
	run_id, documento, archivo, tema_general, subtema, tema_especifico, confianza, palabras_clave, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
			stats.RunID, record.Documento, record.Archivo, record.TemaGeneral, record.Subtema,
			record.TemaEspecifico, string(record.Confianza), keywordsJSON, record.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert record for %q: %w", record.Archivo, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

// ListRuns returns past run summaries, newest first.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.FolderStats, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, folder, total_files, processed, errors, coverage_gaps, started_at, finished_at
FROM classification_runs
ORDER BY started_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.FolderStats
	for rows.Next() {
		var stats domain.FolderStats
		if err := rows.Scan(
			&stats.RunID, &stats.Folder, &stats.TotalFiles, &stats.Processed,
			&stats.Errors, &stats.CoverageGaps, &stats.StartedAt, &stats.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, stats)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
