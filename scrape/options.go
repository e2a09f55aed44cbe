package scrape

import (
	"math"
	"math/rand"
	"time"

	"github.com/Arifmaulanaazis/BioChem/pkg/errors"
	"github.com/Arifmaulanaazis/BioChem/pkg/logging"
)

// RetryPolicy governs how transient failures are retried.
type RetryPolicy struct {
	MaxRetries        int           `json:"max_retries" yaml:"max_retries"`
	InitialBackoff    time.Duration `json:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff        time.Duration `json:"max_backoff" yaml:"max_backoff"`
	BackoffMultiplier float64       `json:"backoff_multiplier" yaml:"backoff_multiplier"`
}

// backoffFor returns the sleep before retry number attempt (zero-based).
// It applies exponential back-off with ±25 % jitter, capped at MaxBackoff.
func (p RetryPolicy) backoffFor(attempt int) time.Duration {
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	base := float64(p.InitialBackoff) * math.Pow(multiplier, float64(attempt))
	if p.MaxBackoff > 0 && base > float64(p.MaxBackoff) {
		base = float64(p.MaxBackoff)
	}
	jitter := base * 0.25 * (rand.Float64()*2 - 1) // [-25%, +25%]
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// Options configures a Runner and, through it, every service client.
type Options struct {
	// MaxWorkers bounds the number of concurrently executing jobs.
	MaxWorkers int

	// MaxBatchSize bounds how many identifiers a client may pack into one
	// remote submission.  Valid range is 1 to 100.
	MaxBatchSize int

	// AutoResume enables the checkpoint store: completed jobs survive a
	// crash and are skipped on the next run, and rate-limited jobs wait
	// and re-poll instead of failing.
	AutoResume bool

	// ResumeDir is the directory holding checkpoint files.
	ResumeDir string

	// WaitInterval is how long a rate-limited job sleeps before polling
	// the service again.
	WaitInterval time.Duration

	// MaxWait bounds the total time a job may spend polling before it
	// fails with CodeTimeout.
	MaxWait time.Duration

	// HTTPTimeout is the per-request timeout applied by service clients.
	HTTPTimeout time.Duration

	Retry   RetryPolicy
	Logger  logging.Logger
	Metrics *Metrics
}

// Option mutates Options.
type Option func(*Options)

// NewOptions builds Options from defaults plus the supplied overrides.
func NewOptions(opts ...Option) Options {
	o := Options{
		MaxWorkers:   4,
		MaxBatchSize: 100,
		WaitInterval: 5 * time.Minute,
		MaxWait:      time.Hour,
		HTTPTimeout:  30 * time.Second,
		Retry: RetryPolicy{
			MaxRetries:        3,
			InitialBackoff:    time.Second,
			MaxBackoff:        30 * time.Second,
			BackoffMultiplier: 2.0,
		},
		Logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Validate checks range constraints before a Runner is constructed.
func (o Options) Validate() error {
	if o.MaxWorkers < 1 {
		return errors.InvalidParam("max workers must be at least 1")
	}
	if o.MaxBatchSize < 1 || o.MaxBatchSize > 100 {
		return errors.InvalidParam("max batch size must be between 1 and 100")
	}
	if o.WaitInterval <= 0 {
		return errors.InvalidParam("wait interval must be positive")
	}
	if o.AutoResume && o.ResumeDir == "" {
		return errors.InvalidParam("auto-resume requires a resume directory")
	}
	return nil
}

// WithMaxWorkers sets the worker pool size.
func WithMaxWorkers(n int) Option {
	return func(o *Options) { o.MaxWorkers = n }
}

// WithMaxBatchSize sets the per-submission identifier cap.
func WithMaxBatchSize(n int) Option {
	return func(o *Options) { o.MaxBatchSize = n }
}

// WithAutoResume enables checkpointing into dir.
func WithAutoResume(dir string) Option {
	return func(o *Options) {
		o.AutoResume = true
		o.ResumeDir = dir
	}
}

// WithWaitInterval sets the rate-limit polling interval.
func WithWaitInterval(d time.Duration) Option {
	return func(o *Options) { o.WaitInterval = d }
}

// WithMaxWait bounds the total polling time per job.
func WithMaxWait(d time.Duration) Option {
	return func(o *Options) { o.MaxWait = d }
}

// WithRetryPolicy replaces the transient-failure retry policy.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(o *Options) { o.Retry = p }
}

// WithHTTPTimeout sets the per-request timeout for service clients.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *Options) { o.HTTPTimeout = d }
}

// WithLogger injects the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics injects prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}
