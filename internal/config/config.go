package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiURL    string `yaml:"gemini_url"`
	GeminiModel  string `yaml:"gemini_model"`

	BatchSize         int `yaml:"batch_size"`
	BatchPauseSeconds int `yaml:"batch_pause_seconds"`

	MaxPages       int `yaml:"max_pages"`
	MaxChars       int `yaml:"max_chars"`
	ShortTextChars int `yaml:"short_text_chars"`
	MinUsableChars int `yaml:"min_usable_chars"`

	OutputDir  string `yaml:"output_dir"`
	ExportXLSX bool   `yaml:"export_xlsx"`

	PostgresDSN string `yaml:"postgres_dsn"`

	MetricsPort string `yaml:"metrics_port"`

	StagingDir string `yaml:"staging_dir"`
}

func Load() Config {
	return Config{
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		GeminiAPIKey: mustEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiURL:    mustEnv("GEMINI_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:  mustEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		BatchSize:         mustEnvInt("BATCH_SIZE", 5),
		BatchPauseSeconds: mustEnvInt("BATCH_PAUSE_SECONDS", 2),

		MaxPages:       mustEnvInt("MAX_PAGES", 20),
		MaxChars:       mustEnvInt("MAX_CHARS", 15000),
		ShortTextChars: mustEnvInt("SHORT_TEXT_CHARS", 100),
		MinUsableChars: mustEnvInt("MIN_USABLE_CHARS", 50),

		OutputDir:  mustEnv("OUTPUT_DIR", "results"),
		ExportXLSX: mustEnvBool("EXPORT_XLSX", true),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		MetricsPort: mustEnv("METRICS_PORT", ""),

		StagingDir: mustEnv("STAGING_DIR", "pdf_staging"),
	}
}

// ApplyFile overlays values from a YAML file onto the loaded config. Absent
// keys keep their current values.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate checks the settings that must abort the run before any batch work.
func (c Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return errors.New("gemini api key is required (set GEMINI_API_KEY)")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
