package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/etfrating/internal/rating"
)

// Registry holds the Prometheus metrics of the rating engine.
// It implements rating.Observer.
type Registry struct {
	reg *prometheus.Registry

	InstrumentDuration *prometheus.HistogramVec
	InstrumentsTotal   *prometheus.CounterVec
	RunsTotal          prometheus.Counter
	LastRunRanked      prometheus.Gauge
	LastRunUniverse    prometheus.Gauge
	LastRunDuration    prometheus.Gauge
	LastRunTimestamp   prometheus.Gauge
	LastRunExcluded    *prometheus.GaugeVec
}

// NewRegistry creates a registry with all etfrating metrics plus Go/process collectors
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		InstrumentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "etfrating_instrument_duration_seconds",
				Help:    "Fetch and indicator time per instrument",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),

		InstrumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "etfrating_instruments_total",
				Help: "Instruments processed by outcome (ok or exclusion reason)",
			},
			[]string{"outcome"},
		),

		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "etfrating_runs_total",
			Help: "Completed rating runs",
		}),

		LastRunRanked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etfrating_last_run_ranked",
			Help: "Instruments ranked in the last run",
		}),

		LastRunUniverse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etfrating_last_run_universe",
			Help: "Universe size of the last run",
		}),

		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etfrating_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}),

		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "etfrating_last_run_timestamp_seconds",
			Help: "Unix time the last run started",
		}),

		LastRunExcluded: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "etfrating_last_run_excluded",
				Help: "Excluded instruments of the last run by reason",
			},
			[]string{"reason"},
		),
	}

	r.reg.MustRegister(
		r.InstrumentDuration,
		r.InstrumentsTotal,
		r.RunsTotal,
		r.LastRunRanked,
		r.LastRunUniverse,
		r.LastRunDuration,
		r.LastRunTimestamp,
		r.LastRunExcluded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// InstrumentDone implements rating.Observer
func (r *Registry) InstrumentDone(outcome string, elapsed time.Duration) {
	r.InstrumentsTotal.WithLabelValues(outcome).Inc()
	r.InstrumentDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RunDone implements rating.Observer
func (r *Registry) RunDone(result *rating.RunResult) {
	r.RunsTotal.Inc()
	r.LastRunRanked.Set(float64(len(result.Ranked)))
	r.LastRunUniverse.Set(float64(result.Universe))
	r.LastRunDuration.Set(result.Duration.Seconds())
	r.LastRunTimestamp.Set(float64(result.Date.Unix()))

	r.LastRunExcluded.Reset()
	for reason, n := range result.ExclusionsByReason() {
		r.LastRunExcluded.WithLabelValues(reason).Set(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry (tests, custom exporters)
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
