package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "BIOCHEM"

// configKeys lists every known configuration key.  Unmarshal only sees env
// values for keys viper knows about, so each key is bound explicitly.
var configKeys = []string{
	"log.level", "log.format", "log.output",
	"scrape.max_workers", "scrape.max_batch_size",
	"scrape.auto_resume", "scrape.resume_dir",
	"scrape.wait_interval", "scrape.max_wait", "scrape.http_timeout",
	"scrape.retry.max_retries", "scrape.retry.base_delay",
	"scrape.retry.max_delay", "scrape.retry.multiplier",
	"chem.force_field", "chem.max_iters", "chem.num_conformers",
	"chem.seed", "chem.workers", "chem.image_width", "chem.image_height",
	"metrics.enabled",
}

// newViper builds a pre-configured Viper instance: YAML file type, BIOCHEM_
// env prefix, automatic env binding, and a key replacer that maps "." to "_"
// so that nested keys like "scrape.max_workers" resolve to
// "BIOCHEM_SCRAPE_MAX_WORKERS".
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

// Load reads the YAML file at configPath, merges any BIOCHEM_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.  It returns a fully-populated *Config or a descriptive error.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from BIOCHEM_* environment variables,
// with no config file required.
//
// Environment variable naming convention:
//
//	BIOCHEM_<SECTION>_<FIELD>   e.g.  BIOCHEM_LOG_LEVEL, BIOCHEM_SCRAPE_MAX_WORKERS
func LoadFromEnv() (*Config, error) {
	v := newViper()
	return unmarshalAndFinalize(v)
}

// unmarshalAndFinalize unmarshals viper state into a Config struct, applies
// defaults, and validates the result.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  If the changed file
// fails to parse or validate, onChange is not called.
//
// Watch is non-blocking; it starts a background goroutine managed by viper.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors surface through Load, not here.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad is a convenience wrapper around Load that panics on any error.
// It is intended for use in main() where a config-load failure is fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
