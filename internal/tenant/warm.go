// internal/tenant/warm.go
//
// Best-effort cache warming.
//
// Run after a deploy or a bulk invalidation to avoid a cold-cache stampede
// on the database.  Every active tenant is written under its subdomain and,
// when set, its custom domain.  A tenant that fails to warm is logged and
// skipped; only a failed enumeration reports Success=false.  A backend that
// is down before we start warms nothing and still succeeds.
package tenant

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/storehub/internal/metrics"
)

// DefaultWarmConcurrency bounds parallel cache writes during warming.
const DefaultWarmConcurrency = 8

// WarmResult summarises one warming run.
type WarmResult struct {
	Success bool
	Count   int
	Err     error
}

// Warmer pre-populates the cache from the database.
type Warmer struct {
	cache       *Cache
	src         Source
	concurrency int
	m           *metrics.Collectors
	log         *zap.Logger
}

// NewWarmer wires a Warmer.  concurrency < 1 selects the default.
func NewWarmer(c *Cache, src Source, concurrency int, m *metrics.Collectors, log *zap.Logger) *Warmer {
	if concurrency < 1 {
		concurrency = DefaultWarmConcurrency
	}
	return &Warmer{cache: c, src: src, concurrency: concurrency, m: m, log: log.Named("tenant.warm")}
}

// WarmAll writes every active tenant into the cache.
func (w *Warmer) WarmAll(ctx context.Context) WarmResult {
	start := time.Now()

	if !w.cache.Available() {
		w.log.Warn("cache warming skipped: backend unavailable")
		w.m.WarmRuns.WithLabelValues("skipped").Inc()
		return WarmResult{Success: true}
	}

	recs, err := w.src.ListActive(ctx)
	if err != nil {
		w.log.Error("cache warming: list active tenants", zap.Error(err))
		w.m.WarmRuns.WithLabelValues("failed").Inc()
		return WarmResult{Err: err}
	}

	var (
		warmed atomic.Int64
		g      errgroup.Group
	)
	g.SetLimit(w.concurrency)
	for i := range recs {
		rec := &recs[i]
		g.Go(func() error {
			if w.warmOne(ctx, rec) {
				warmed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	n := int(warmed.Load())
	w.m.WarmRuns.WithLabelValues("ok").Inc()
	w.m.TenantsWarmed.Add(float64(n))
	w.log.Info("tenant cache warmed",
		zap.Int("warmed", n),
		zap.Int("active", len(recs)),
		zap.Duration("elapsed", time.Since(start)))
	return WarmResult{Success: true, Count: n}
}

func (w *Warmer) warmOne(ctx context.Context, rec *Record) bool {
	ok := true
	for _, id := range rec.Identifiers().List() {
		if !w.cache.Prime(ctx, id, rec) {
			ok = false
		}
	}
	if !ok {
		w.log.Warn("tenant not warmed",
			zap.String("tenant_id", rec.ID),
			zap.String("subdomain", rec.Subdomain))
	}
	return ok
}
