package config

import "time"

// ---------------------------------------------------------------------------
// Default value constants
// ---------------------------------------------------------------------------

const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stderr"

	DefaultMaxWorkers   = 4
	DefaultMaxBatchSize = 100
	DefaultResumeDir    = ".biochem/checkpoints"
	DefaultWaitInterval = 5 * time.Minute
	DefaultMaxWait      = time.Hour
	DefaultHTTPTimeout  = 30 * time.Second

	DefaultMaxRetries      = 3
	DefaultRetryBaseDelay  = time.Second
	DefaultRetryMaxDelay   = 30 * time.Second
	DefaultRetryMultiplier = 2.0

	DefaultForceField    = "MMFF94"
	DefaultMaxIters      = 200
	DefaultNumConformers = 1
	DefaultSeed          = 42
	DefaultChemWorkers   = 4
	DefaultImageWidth    = 400
	DefaultImageHeight   = 400
)

// ApplyDefaults fills every zero-value field in cfg with the toolkit
// default.  Fields that have already been set by the caller are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = DefaultLogOutput
	}

	// Scrape
	if cfg.Scrape.MaxWorkers == 0 {
		cfg.Scrape.MaxWorkers = DefaultMaxWorkers
	}
	if cfg.Scrape.MaxBatchSize == 0 {
		cfg.Scrape.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.Scrape.ResumeDir == "" {
		cfg.Scrape.ResumeDir = DefaultResumeDir
	}
	if cfg.Scrape.WaitInterval == 0 {
		cfg.Scrape.WaitInterval = DefaultWaitInterval
	}
	if cfg.Scrape.MaxWait == 0 {
		cfg.Scrape.MaxWait = DefaultMaxWait
	}
	if cfg.Scrape.HTTPTimeout == 0 {
		cfg.Scrape.HTTPTimeout = DefaultHTTPTimeout
	}
	if cfg.Scrape.Retry.MaxRetries == 0 {
		cfg.Scrape.Retry.MaxRetries = DefaultMaxRetries
	}
	if cfg.Scrape.Retry.BaseDelay == 0 {
		cfg.Scrape.Retry.BaseDelay = DefaultRetryBaseDelay
	}
	if cfg.Scrape.Retry.MaxDelay == 0 {
		cfg.Scrape.Retry.MaxDelay = DefaultRetryMaxDelay
	}
	if cfg.Scrape.Retry.Multiplier == 0 {
		cfg.Scrape.Retry.Multiplier = DefaultRetryMultiplier
	}

	// Chem
	if cfg.Chem.ForceField == "" {
		cfg.Chem.ForceField = DefaultForceField
	}
	if cfg.Chem.MaxIters == 0 {
		cfg.Chem.MaxIters = DefaultMaxIters
	}
	if cfg.Chem.NumConformers == 0 {
		cfg.Chem.NumConformers = DefaultNumConformers
	}
	if cfg.Chem.Seed == 0 {
		cfg.Chem.Seed = DefaultSeed
	}
	if cfg.Chem.Workers == 0 {
		cfg.Chem.Workers = DefaultChemWorkers
	}
	if cfg.Chem.ImageWidth == 0 {
		cfg.Chem.ImageWidth = DefaultImageWidth
	}
	if cfg.Chem.ImageHeight == 0 {
		cfg.Chem.ImageHeight = DefaultImageHeight
	}
}
