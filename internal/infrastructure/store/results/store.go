package results

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
)

var tableColumns = []string{
	"documento", "archivo", "tema_general", "subtema", "tema_especifico",
	"confianza", "palabras_clave", "timestamp",
}

// Store persists result sets as session-stamped artifacts: a full-fidelity
// JSON array, a flattened CSV table, and optionally an XLSX workbook.
type Store struct {
	outputDir  string
	exportXLSX bool
	logger     *slog.Logger
}

func New(outputDir string, exportXLSX bool, logger *slog.Logger) (*Store, error) {
	if outputDir == "" {
		outputDir = "results"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{outputDir: outputDir, exportXLSX: exportXLSX, logger: logger}, nil
}

// Save writes the artifacts for one session. An empty result set produces no
// files, only a warning.
func (s *Store) Save(ctx context.Context, sessionStamp string, records []domain.Record) (domain.SavedArtifacts, error) {
	if err := ctx.Err(); err != nil {
		return domain.SavedArtifacts{}, err
	}
	if len(records) == 0 {
		s.logger.Warn("no_results_to_save", "session", sessionStamp)
		return domain.SavedArtifacts{}, nil
	}

	artifacts := domain.SavedArtifacts{
		JSONPath: filepath.Join(s.outputDir, fmt.Sprintf("clasificacion_%s.json", sessionStamp)),
		CSVPath:  filepath.Join(s.outputDir, fmt.Sprintf("clasificacion_%s.csv", sessionStamp)),
	}

	if err := s.writeJSON(artifacts.JSONPath, records); err != nil {
		return domain.SavedArtifacts{}, err
	}
	s.logger.Info("results_saved", "format", "json", "path", artifacts.JSONPath, "records", len(records))

	if err := s.writeCSV(artifacts.CSVPath, records); err != nil {
		return domain.SavedArtifacts{}, err
	}
	s.logger.Info("results_saved", "format", "csv", "path", artifacts.CSVPath, "records", len(records))

	if s.exportXLSX {
		artifacts.XLSXPath = filepath.Join(s.outputDir, fmt.Sprintf("clasificacion_%s.xlsx", sessionStamp))
		if err := s.writeXLSX(artifacts.XLSXPath, records); err != nil {
			return domain.SavedArtifacts{}, err
		}
		s.logger.Info("results_saved", "format", "xlsx", "path", artifacts.XLSXPath, "records", len(records))
	}

	return artifacts, nil
}

// Load reads a persisted JSON artifact back into records so organization can
// re-run against historical results.
func (s *Store) Load(ctx context.Context, path string) ([]domain.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results file: %w", err)
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse results file %q: %w", path, err)
	}
	return records, nil
}

func (s *Store) writeJSON(path string, records []domain.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json results: %w", err)
	}
	return nil
}

func (s *Store) writeCSV(path string, records []domain.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv results: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tableColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(flattenRecord(record)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv results: %w", err)
	}
	return nil
}

func (s *Store) writeXLSX(path string, records []domain.Record) error {
	f := excelize.NewFile()
	const sheet = "Clasificacion"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create xlsx sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	for col, header := range tableColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("write xlsx header: %w", err)
		}
	}
	for rowIdx, record := range records {
		for col, value := range flattenRecord(record) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write xlsx row: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx results: %w", err)
	}
	return nil
}

// flattenRecord restricts a record to the fixed column set; absent values
// become empty cells.
func flattenRecord(record domain.Record) []string {
	documento := ""
	if record.Documento > 0 {
		documento = strconv.Itoa(record.Documento)
	}
	timestamp := ""
	if !record.Timestamp.IsZero() {
		timestamp = record.Timestamp.Format(time.RFC3339)
	}
	return []string{
		documento,
		record.Archivo,
		record.TemaGeneral,
		record.Subtema,
		record.TemaEspecifico,
		string(record.Confianza),
		strings.Join(record.PalabrasClave, ", "),
		timestamp,
	}
}
