// Package metrics holds the Prometheus instruments for the tenant routing
// path.  Collectors are built by New and registered with the supplied
// registerer; main passes prometheus.DefaultRegisterer so /metrics exposes
// them, tests pass a fresh registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes used as the `outcome` label.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

// Collectors groups every instrument.  Construct once at startup.
type Collectors struct {
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheErrors prometheus.Counter

	BackendErrors *prometheus.CounterVec // op

	ResolutionDuration *prometheus.HistogramVec // outcome

	Invalidations    *prometheus.CounterVec // scope
	KeysInvalidated  prometheus.Counter
	WarmRuns         *prometheus.CounterVec // result
	TenantsWarmed    prometheus.Counter
	BackendAvailable prometheus.Gauge
}

// New creates and registers the collectors.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenant_cache_hits_total",
			Help: "Tenant lookups answered from the cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenant_cache_misses_total",
			Help: "Tenant lookups that fell through to the database.",
		}),
		CacheErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenant_cache_errors_total",
			Help: "Tenant lookups whose cache read failed.",
		}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_backend_errors_total",
			Help: "Cache backend operations that failed, by operation.",
		}, []string{"op"}),
		ResolutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tenant_resolution_duration_seconds",
			Help:    "Host to tenant resolution latency, by outcome.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"outcome"}),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenant_cache_invalidations_total",
			Help: "Invalidation calls, by scope.",
		}, []string{"scope"}),
		KeysInvalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenant_cache_keys_invalidated_total",
			Help: "Cache keys removed by explicit invalidation.",
		}),
		WarmRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tenant_cache_warm_runs_total",
			Help: "Cache warming runs, by result.",
		}, []string{"result"}),
		TenantsWarmed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tenant_cache_warmed_tenants_total",
			Help: "Tenants written to the cache by warming.",
		}),
		BackendAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_backend_available",
			Help: "1 when the cache backend is configured and not cooling down.",
		}),
	}
	reg.MustRegister(
		c.CacheHits, c.CacheMisses, c.CacheErrors,
		c.BackendErrors, c.ResolutionDuration,
		c.Invalidations, c.KeysInvalidated,
		c.WarmRuns, c.TenantsWarmed, c.BackendAvailable,
	)
	return c
}

// ObserveResolution records one resolution.
func (c *Collectors) ObserveResolution(outcome string, d time.Duration) {
	c.ResolutionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
