// Package config loads application configuration from a YAML file and
// environment variables via cleanenv.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Export   ExportConfig   `yaml:"export"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH" env-default:"lexport.db"`
}

// ExportConfig holds row formatting settings.
type ExportConfig struct {
	Format    string `yaml:"format"     env:"EXPORT_FORMAT"     env-default:"anki"`
	ClozeHint string `yaml:"cloze_hint" env:"EXPORT_CLOZE_HINT" env-default:"::"`
	// MinStatus filters exported terms; 0 exports everything.
	MinStatus int `yaml:"min_status" env:"EXPORT_MIN_STATUS" env-default:"0"`
}

// IngestConfig holds registration pipeline settings.
type IngestConfig struct {
	Workers   int `yaml:"workers"    env:"INGEST_WORKERS"    env-default:"4"`
	BatchSize int `yaml:"batch_size" env:"INGEST_BATCH_SIZE" env-default:"50"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML file path is determined by CONFIG_PATH env (fallback "./config.yaml").
// If the file does not exist and CONFIG_PATH was not set explicitly,
// configuration is loaded from ENV + defaults only.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		// No file, load from ENV + defaults only.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// Validate checks cross-field constraints cleanenv tags cannot express.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Ingest.Workers < 1 {
		return fmt.Errorf("ingest workers must be at least 1, got %d", c.Ingest.Workers)
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("ingest batch size must be at least 1, got %d", c.Ingest.BatchSize)
	}
	switch c.Export.Format {
	case "anki", "tsv", "flexible":
	default:
		return fmt.Errorf("unknown export format %q", c.Export.Format)
	}
	return nil
}
