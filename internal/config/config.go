// Package config loads settings from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sink kinds.
const (
	SinkFile   = "file"
	SinkStdout = "stdout"
	SinkGCS    = "gcs"
)

// Config holds every setting shared by the CLI and the HTTP function.
type Config struct {
	Sink           string        `yaml:"sink"`
	OutputDir      string        `yaml:"outputDir"`
	Overwrite      bool          `yaml:"overwrite"`
	OutputBucket   string        `yaml:"outputBucket"`
	OutputPrefix   string        `yaml:"outputPrefix"`
	ValidationMode string        `yaml:"validationMode"`
	Optimize       bool          `yaml:"optimize"`
	Cooldown       time.Duration `yaml:"cooldown"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	LogLevel       string        `yaml:"logLevel"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Sink:           SinkFile,
		OutputDir:      ".",
		ValidationMode: "relaxed",
		Cooldown:       time.Second,
		MaxUploadBytes: 64 << 20,
		LogLevel:       "info",
	}
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Load builds a Config. path may be empty; otherwise the YAML file it names
// must exist. PDFMERGE_CONFIG is used when path is empty.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = GetEnv("PDFMERGE_CONFIG", "")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	c.Sink = GetEnv("SINK", c.Sink)
	c.OutputDir = GetEnv("OUTPUT_DIR", c.OutputDir)
	c.OutputBucket = GetEnv("OUTPUT_BUCKET", c.OutputBucket)
	c.OutputPrefix = GetEnv("OUTPUT_PREFIX", c.OutputPrefix)
	c.ValidationMode = GetEnv("VALIDATION_MODE", c.ValidationMode)
	c.LogLevel = GetEnv("LOG_LEVEL", c.LogLevel)

	if v := GetEnv("OVERWRITE", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("OVERWRITE must be a boolean: %w", err)
		}
		c.Overwrite = b
	}
	if v := GetEnv("OPTIMIZE", ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("OPTIMIZE must be a boolean: %w", err)
		}
		c.Optimize = b
	}
	if v := GetEnv("MERGE_COOLDOWN", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("MERGE_COOLDOWN must be a duration: %w", err)
		}
		c.Cooldown = d
	}
	if v := GetEnv("MAX_UPLOAD_BYTES", ""); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES must be an integer: %w", err)
		}
		c.MaxUploadBytes = n
	}
	return nil
}

// Validate checks cross-field requirements.
func (c *Config) Validate() error {
	switch c.Sink {
	case SinkFile, SinkStdout:
	case SinkGCS:
		if c.OutputBucket == "" {
			return fmt.Errorf("OUTPUT_BUCKET must be set when SINK is %q", SinkGCS)
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}
	switch strings.ToLower(c.ValidationMode) {
	case "relaxed", "strict":
	default:
		return fmt.Errorf("VALIDATION_MODE must be relaxed or strict, got %q", c.ValidationMode)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// SlogLevel maps LogLevel onto slog, defaulting to Info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
