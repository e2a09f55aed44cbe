package scrape

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors the engine reports into.  All
// methods are nil-safe so instrumentation stays optional.
type Metrics struct {
	jobsTotal       *prometheus.CounterVec
	retriesTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	pollWaits       *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.  Pass
// prometheus.DefaultRegisterer for the process-global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biochem",
			Subsystem: "scrape",
			Name:      "jobs_total",
			Help:      "Scrape jobs by service and terminal status.",
		}, []string{"service", "status"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biochem",
			Subsystem: "scrape",
			Name:      "retries_total",
			Help:      "Transient-failure retries by service.",
		}, []string{"service"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "biochem",
			Subsystem: "scrape",
			Name:      "job_duration_seconds",
			Help:      "Wall time per job from first submission to terminal state.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
		}, []string{"service"}),
		pollWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "biochem",
			Subsystem: "scrape",
			Name:      "poll_waits_total",
			Help:      "Rate-limit polling sleeps by service.",
		}, []string{"service"}),
	}
	if reg != nil {
		reg.MustRegister(m.jobsTotal, m.retriesTotal, m.requestDuration, m.pollWaits)
	}
	return m
}

func (m *Metrics) observeJob(service string, status Status) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(service, string(status)).Inc()
}

func (m *Metrics) observeRetry(service string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(service).Inc()
}

func (m *Metrics) observeDuration(service string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(service).Observe(d.Seconds())
}

func (m *Metrics) observePollWait(service string) {
	if m == nil {
		return
	}
	m.pollWaits.WithLabelValues(service).Inc()
}
