package tenant

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/storehub/internal/cache"
	"github.com/yanizio/storehub/internal/metrics"
)

// DefaultTTL bounds staleness after out-of-band database edits.
const DefaultTTL = 5 * time.Minute

// DefaultFetchTimeout bounds a coalesced database query.
const DefaultFetchTimeout = 5 * time.Second

// KV is the cache adapter contract; *cache.Store satisfies it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, cache.Outcome)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) bool
	Delete(ctx context.Context, keys ...string) int
	DeleteByPattern(ctx context.Context, pattern string) int
	Available() bool
}

// CacheOptions tunes the tenant cache.
type CacheOptions struct {
	TTL time.Duration

	// Coalesce funnels concurrent misses for one identifier into a single
	// database query.  Off, every miss queries independently; both are
	// correct because the fallback is read-only and idempotent.
	Coalesce bool

	// FetchTimeout bounds a coalesced query.  The shared query outlives
	// the caller that started it, so it runs on its own deadline.
	FetchTimeout time.Duration
}

// Stats is a snapshot of the lookup counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Errors int64 `json:"errors"`
}

// Cache is a cache-aside layer keyed by lookup identifier.  It never
// originates a Record; it shadows the database for at most TTL.
// Returned records are shared and must be treated as read-only.
type Cache struct {
	kv       KV
	src      Source
	ttl      time.Duration
	coalesce bool
	fetchTTL time.Duration
	sfg      singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64

	m   *metrics.Collectors
	log *zap.Logger
}

// NewCache wires the cache.  A zero TTL selects DefaultTTL.
func NewCache(kv KV, src Source, opts CacheOptions, m *metrics.Collectors, log *zap.Logger) *Cache {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	fetchTTL := opts.FetchTimeout
	if fetchTTL <= 0 {
		fetchTTL = DefaultFetchTimeout
	}
	return &Cache{
		kv:       kv,
		src:      src,
		ttl:      ttl,
		coalesce: opts.Coalesce,
		fetchTTL: fetchTTL,
		m:        m,
		log:      log.Named("tenant.cache"),
	}
}

// Tenant returns the active tenant for identifier, nil when none exists.
// A non-nil error means the database fallback failed.
func (c *Cache) Tenant(ctx context.Context, identifier string) (*Record, error) {
	rec, _, err := c.Lookup(ctx, identifier)
	return rec, err
}

// Lookup is Tenant plus whether the answer came from the cache.
//
//  1. Cache hit → return without touching the database.
//  2. Cache miss or backend failure → query the database.
//  3. Database hit → populate the cache with TTL.
//  4. Database miss → nil, nil.  Database error → nil, err.
func (c *Cache) Lookup(ctx context.Context, identifier string) (*Record, bool, error) {
	key := Key(identifier)

	raw, out := c.kv.Get(ctx, key)
	switch out {
	case cache.Hit:
		rec, err := decode(raw)
		if err == nil {
			c.recordHit(identifier)
			return rec, true, nil
		}
		c.log.Warn("evicting unreadable cache entry",
			zap.String("key", key), zap.Error(err))
		c.kv.Delete(ctx, key)
	case cache.Failed:
		c.recordError(identifier)
	}
	c.recordMiss(identifier)

	rec, err := c.load(ctx, identifier)
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

// Prime writes rec under identifier regardless of traffic.  Used by
// warming; reports whether the write landed.
func (c *Cache) Prime(ctx context.Context, identifier string, rec *Record) bool {
	return c.store(ctx, identifier, rec)
}

// Available reports whether the backend can currently take writes.
func (c *Cache) Available() bool { return c.kv.Available() }

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Metrics returns the current counters.
func (c *Cache) Metrics() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Errors: c.errs.Load(),
	}
}

// ResetMetrics zeroes the counters.  Prometheus counters are monotonic
// and are left alone.
func (c *Cache) ResetMetrics() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.errs.Store(0)
}

/*──────────────────────────── internals ───────────────────────────────────*/

func (c *Cache) load(ctx context.Context, identifier string) (*Record, error) {
	if !c.coalesce {
		return c.fetch(ctx, identifier)
	}
	// A caller that goes away must not fail the callers waiting on the
	// same query, so the query drops ctx's cancellation and each caller
	// waits on its own ctx.
	ch := c.sfg.DoChan(Key(identifier), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTTL)
		defer cancel()
		return c.fetch(fctx, identifier)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		rec, _ := res.Val.(*Record)
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fetch(ctx context.Context, identifier string) (*Record, error) {
	rec, err := c.src.FindByIdentifier(ctx, identifier)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.store(ctx, identifier, rec)
	return rec, nil
}

func (c *Cache) store(ctx context.Context, identifier string, rec *Record) bool {
	b, err := encode(rec)
	if err != nil {
		c.log.Error("encode tenant for cache",
			zap.String("tenant_id", rec.ID), zap.Error(err))
		return false
	}
	return c.kv.Set(ctx, Key(identifier), b, c.ttl)
}

func (c *Cache) recordHit(identifier string) {
	c.hits.Add(1)
	c.m.CacheHits.Inc()
	c.log.Debug("tenant.cache.hit", zap.String("identifier", identifier))
}

func (c *Cache) recordMiss(identifier string) {
	c.misses.Add(1)
	c.m.CacheMisses.Inc()
	c.log.Debug("tenant.cache.miss", zap.String("identifier", identifier))
}

func (c *Cache) recordError(identifier string) {
	c.errs.Add(1)
	c.m.CacheErrors.Inc()
	c.log.Debug("tenant.cache.error", zap.String("identifier", identifier))
}
