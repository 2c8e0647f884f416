// Package config loads the page-tools-mcp settings.
//
// Settings come from, in increasing priority: built-in defaults, a YAML
// file, and PAGE_MCP_* environment variables. LoadDotEnv fills the
// environment from a .env file first, without overriding variables that
// are already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGE_MCP_"

// Config holds the application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Scratch   ScratchConfig   `yaml:"scratch"`
	Batch     BatchConfig     `yaml:"batch"`
	Output    OutputConfig    `yaml:"output"`
	Detection DetectionConfig `yaml:"detection"`
	OCR       OCRConfig       `yaml:"ocr"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ScratchConfig locates the batch scratch area.
type ScratchConfig struct {
	Root             string `yaml:"root"`
	URLPrefix        string `yaml:"url_prefix"`
	KeepFailedInputs bool   `yaml:"keep_failed_inputs"`
}

// BatchConfig sizes the batch worker pool.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// OutputConfig controls the normalized JPEG.
type OutputConfig struct {
	JPEGQuality int `yaml:"jpeg_quality"`
}

// DetectionConfig tunes the boundary detector.
type DetectionConfig struct {
	MaxSide  int  `yaml:"max_side"`
	Parallel bool `yaml:"parallel"`
}

// OCRConfig selects the OCR language.
type OCRConfig struct {
	Language string `yaml:"language"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Scratch: ScratchConfig{
			Root:      filepath.Join(os.TempDir(), "page-tools-mcp"),
			URLPrefix: "/media/",
		},
		Batch:     BatchConfig{Workers: 4},
		Output:    OutputConfig{JPEGQuality: 90},
		Detection: DetectionConfig{MaxSide: 1024, Parallel: true},
		OCR:       OCRConfig{Language: "eng"},
	}
}

// LoadDotEnv loads variables from the given .env files (".env" when none
// are named). Missing files are skipped; variables already present in the
// environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then with environment overrides. The result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from PAGE_MCP_* variables. Keys are checked in
// a fixed order, so the first invalid one is always the one reported.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"LOG_LEVEL", &c.Log.Level},
		{"SCRATCH_ROOT", &c.Scratch.Root},
		{"SCRATCH_URL_PREFIX", &c.Scratch.URLPrefix},
		{"OCR_LANGUAGE", &c.OCR.Language},
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"BATCH_WORKERS", &c.Batch.Workers},
		{"JPEG_QUALITY", &c.Output.JPEGQuality},
		{"DETECTION_MAX_SIDE", &c.Detection.MaxSide},
	}
	bools := []struct {
		key string
		dst *bool
	}{
		{"KEEP_FAILED_INPUTS", &c.Scratch.KeepFailedInputs},
		{"DETECTION_PARALLEL", &c.Detection.Parallel},
	}

	for _, e := range strs {
		if v, ok := lookup(EnvPrefix + e.key); ok {
			*e.dst = v
		}
	}
	for _, e := range ints {
		v, ok := lookup(EnvPrefix + e.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s must be an integer: %w", EnvPrefix, e.key, err)
		}
		*e.dst = n
	}
	for _, e := range bools {
		v, ok := lookup(EnvPrefix + e.key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s must be a boolean: %w", EnvPrefix, e.key, err)
		}
		*e.dst = b
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Scratch.Root == "" {
		return fmt.Errorf("scratch.root cannot be empty")
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("output.jpeg_quality must be between 1 and 100")
	}
	if c.Detection.MaxSide < 0 {
		return fmt.Errorf("detection.max_side cannot be negative")
	}
	return nil
}

// LogLevel returns the parsed log level. Call Validate first.
func (c *Config) LogLevel() logrus.Level {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
