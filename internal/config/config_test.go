package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BATCH_SIZE", "")
	t.Setenv("MAX_PAGES", "")
	t.Setenv("MAX_CHARS", "")
	t.Setenv("OUTPUT_DIR", "")
	t.Setenv("EXPORT_XLSX", "")

	cfg := Load()
	if cfg.BatchSize != 5 {
		t.Fatalf("expected default batch size 5, got %d", cfg.BatchSize)
	}
	if cfg.MaxPages != 20 {
		t.Fatalf("expected default max pages 20, got %d", cfg.MaxPages)
	}
	if cfg.MaxChars != 15000 {
		t.Fatalf("expected default max chars 15000, got %d", cfg.MaxChars)
	}
	if cfg.OutputDir != "results" {
		t.Fatalf("expected default output dir results, got %q", cfg.OutputDir)
	}
	if !cfg.ExportXLSX {
		t.Fatalf("expected xlsx export enabled by default")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("BATCH_SIZE", "3")
	t.Setenv("BATCH_PAUSE_SECONDS", "5")
	t.Setenv("GEMINI_MODEL", "gemini-2.0-flash")

	cfg := Load()
	if cfg.BatchSize != 3 {
		t.Fatalf("expected batch size 3, got %d", cfg.BatchSize)
	}
	if cfg.BatchPauseSeconds != 5 {
		t.Fatalf("expected batch pause 5, got %d", cfg.BatchPauseSeconds)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected model override, got %q", cfg.GeminiModel)
	}
}

func TestApplyFileOverlaysOnlyPresentKeys(t *testing.T) {
	t.Setenv("BATCH_SIZE", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("batch_size: 7\noutput_dir: salida\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg := Load()
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile() error = %v", err)
	}
	if cfg.BatchSize != 7 {
		t.Fatalf("expected batch size 7 from file, got %d", cfg.BatchSize)
	}
	if cfg.OutputDir != "salida" {
		t.Fatalf("expected output dir from file, got %q", cfg.OutputDir)
	}
	if cfg.MaxPages != 20 {
		t.Fatalf("expected untouched max pages default, got %d", cfg.MaxPages)
	}
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := Config{BatchSize: 5}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error without api key")
	}
	cfg.GeminiAPIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
