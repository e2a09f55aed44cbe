package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsEmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, DefaultMaxWorkers, cfg.Scrape.MaxWorkers)
	assert.Equal(t, DefaultMaxBatchSize, cfg.Scrape.MaxBatchSize)
	assert.Equal(t, DefaultWaitInterval, cfg.Scrape.WaitInterval)
	assert.Equal(t, DefaultMaxWait, cfg.Scrape.MaxWait)
	assert.Equal(t, DefaultRetryMultiplier, cfg.Scrape.Retry.Multiplier)
	assert.Equal(t, DefaultForceField, cfg.Chem.ForceField)
	assert.Equal(t, int64(DefaultSeed), cfg.Chem.Seed)
	assert.False(t, cfg.Scrape.AutoResume)
}

func TestApplyDefaultsPreservesExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Scrape.MaxWorkers = 12
	cfg.Scrape.WaitInterval = 2 * time.Minute
	cfg.Chem.ForceField = "UFF"
	ApplyDefaults(cfg)

	assert.Equal(t, 12, cfg.Scrape.MaxWorkers)
	assert.Equal(t, 2*time.Minute, cfg.Scrape.WaitInterval)
	assert.Equal(t, "UFF", cfg.Chem.ForceField)
}

func TestApplyDefaultsNilConfig(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
