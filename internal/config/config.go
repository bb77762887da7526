// Package config loads application settings from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to run the project state engine.
type Config struct {
	Archive HistoryStoreConfig `yaml:"archive"`
	Blob    BlobConfig         `yaml:"blob"`
	History HistoryConfig      `yaml:"history"`
	Logging LoggingConfig      `yaml:"logging"`
	Metrics MetricsConfig      `yaml:"metrics"`
}

// HistoryStoreConfig selects where archived project documents are kept.
type HistoryStoreConfig struct {
	Driver string `yaml:"driver"` // memory|sqlite|postgres
	Path   string `yaml:"path"`   // sqlite database file
	DSN    string `yaml:"dsn"`    // postgres connection string
	Keep   int    `yaml:"keep"`   // records retained per project by prune
}

// BlobConfig configures the optional backup mirror.
type BlobConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Driver    string `yaml:"driver"` // fs|s3|memory
	Root      string `yaml:"root"`   // filesystem root when driver=fs
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // optional, for MinIO
	PathStyle bool   `yaml:"pathStyle"`
}

// HistoryConfig controls the undo/redo snapshot history.
type HistoryConfig struct {
	Limit int `yaml:"limit"` // snapshots retained; 0 means unbounded
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig selects the metrics recorder.
type MetricsConfig struct {
	Driver string `yaml:"driver"` // prometheus|expvar|none
}

// Load initialises Config from a YAML file and optional environment
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SPECTRACORE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Archive: HistoryStoreConfig{Driver: "sqlite", Path: "spectracore.db", Keep: 25},
		Blob:    BlobConfig{Enabled: false, Driver: "fs", Root: "./blobdata"},
		History: HistoryConfig{Limit: 128},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Metrics: MetricsConfig{Driver: "expvar"},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPECTRACORE_ARCHIVE_DRIVER"); v != "" {
		cfg.Archive.Driver = v
	}
	if v := os.Getenv("SPECTRACORE_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("SPECTRACORE_ARCHIVE_DSN"); v != "" {
		cfg.Archive.DSN = v
	}
	if v := os.Getenv("SPECTRACORE_ARCHIVE_KEEP"); v != "" {
		if keep, err := strconv.Atoi(v); err == nil {
			cfg.Archive.Keep = keep
		}
	}
	if v := os.Getenv("SPECTRACORE_BLOB_ENABLED"); v != "" {
		cfg.Blob.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("SPECTRACORE_BLOB_DRIVER"); v != "" {
		cfg.Blob.Driver = v
	}
	if v := os.Getenv("SPECTRACORE_BLOB_FS_ROOT"); v != "" {
		cfg.Blob.Root = v
	}
	if v := os.Getenv("SPECTRACORE_BLOB_S3_BUCKET"); v != "" {
		cfg.Blob.Bucket = v
	}
	if v := os.Getenv("SPECTRACORE_BLOB_S3_REGION"); v != "" {
		cfg.Blob.Region = v
	}
	if v := os.Getenv("SPECTRACORE_BLOB_S3_ENDPOINT"); v != "" {
		cfg.Blob.Endpoint = v
	}
	if v := os.Getenv("SPECTRACORE_BLOB_S3_PATH_STYLE"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Blob.PathStyle = true
	}
	if v := os.Getenv("SPECTRACORE_HISTORY_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.History.Limit = limit
		}
	}
	if v := os.Getenv("SPECTRACORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SPECTRACORE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("SPECTRACORE_METRICS_DRIVER"); v != "" {
		cfg.Metrics.Driver = v
	}
}
