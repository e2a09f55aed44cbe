// Package config defines the configuration structures for the BioChem
// toolkit.  No I/O or parsing logic lives here, only plain data types and
// validation.
package config

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Sub-configuration structs
// ---------------------------------------------------------------------------

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"`
}

// RetryConfig holds the retry schedule for transient network failures.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	Multiplier float64       `mapstructure:"multiplier"`
}

// ScrapeConfig holds the shared tunables of the web-service clients.
type ScrapeConfig struct {
	MaxWorkers   int           `mapstructure:"max_workers"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
	AutoResume   bool          `mapstructure:"auto_resume"`
	ResumeDir    string        `mapstructure:"resume_dir"`
	WaitInterval time.Duration `mapstructure:"wait_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	Retry        RetryConfig   `mapstructure:"retry"`
}

// ChemConfig holds the defaults of the cheminformatics engine.
type ChemConfig struct {
	ForceField    string `mapstructure:"force_field"` // "MMFF94" | "UFF"
	MaxIters      int    `mapstructure:"max_iters"`
	NumConformers int    `mapstructure:"num_conformers"`
	Seed          int64  `mapstructure:"seed"`
	Workers       int    `mapstructure:"workers"`
	ImageWidth    int    `mapstructure:"image_width"`
	ImageHeight   int    `mapstructure:"image_height"`
}

// MetricsConfig controls the optional Prometheus registry.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ---------------------------------------------------------------------------
// Root Config
// ---------------------------------------------------------------------------

// Config is the root configuration structure.  The CLI and every service
// client read their settings from the relevant sub-struct.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Chem    ChemConfig    `mapstructure:"chem"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// Scrape
	if c.Scrape.MaxWorkers < 1 {
		return fmt.Errorf("config: scrape.max_workers must be >= 1, got %d", c.Scrape.MaxWorkers)
	}
	if c.Scrape.MaxBatchSize < 1 || c.Scrape.MaxBatchSize > 100 {
		return fmt.Errorf("config: scrape.max_batch_size %d is out of range [1, 100]", c.Scrape.MaxBatchSize)
	}
	if c.Scrape.WaitInterval <= 0 {
		return fmt.Errorf("config: scrape.wait_interval must be positive, got %s", c.Scrape.WaitInterval)
	}
	if c.Scrape.AutoResume && c.Scrape.ResumeDir == "" {
		return fmt.Errorf("config: scrape.resume_dir is required when auto_resume is enabled")
	}
	if c.Scrape.Retry.MaxRetries < 0 {
		return fmt.Errorf("config: scrape.retry.max_retries must be >= 0, got %d", c.Scrape.Retry.MaxRetries)
	}
	if c.Scrape.Retry.Multiplier < 1 {
		return fmt.Errorf("config: scrape.retry.multiplier must be >= 1, got %g", c.Scrape.Retry.Multiplier)
	}

	// Chem
	switch c.Chem.ForceField {
	case "MMFF94", "UFF":
	default:
		return fmt.Errorf("config: chem.force_field %q is invalid; expected MMFF94|UFF", c.Chem.ForceField)
	}
	if c.Chem.MaxIters < 1 {
		return fmt.Errorf("config: chem.max_iters must be >= 1, got %d", c.Chem.MaxIters)
	}
	if c.Chem.NumConformers < 1 {
		return fmt.Errorf("config: chem.num_conformers must be >= 1, got %d", c.Chem.NumConformers)
	}
	if c.Chem.Workers < 1 {
		return fmt.Errorf("config: chem.workers must be >= 1, got %d", c.Chem.Workers)
	}
	if c.Chem.ImageWidth < 1 || c.Chem.ImageHeight < 1 {
		return fmt.Errorf("config: chem.image_width and chem.image_height must be >= 1, got %dx%d",
			c.Chem.ImageWidth, c.Chem.ImageHeight)
	}

	return nil
}
