// internal/tenant/resolver.go
//
// Host → tenant resolution for the routing layer.
//
// Context
// -------
// The routing middleware calls Resolve once per request.  Root and
// localhost hosts never touch the cache or database; subdomain and custom
// hosts go through Cache.Lookup under a bounded context.
//
// Resolution never fails a request.  A database error is logged with the
// hostname and reported as "no tenant"; the routing layer decides what the
// user sees.
package tenant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/hostname"
	"github.com/yanizio/storehub/internal/metrics"
)

// DefaultLookupTimeout caps one cache + database round trip.
const DefaultLookupTimeout = 2 * time.Second

// Resolver composes the classifier and the tenant cache.
type Resolver struct {
	classifier *hostname.Classifier
	cache      *Cache
	timeout    time.Duration
	m          *metrics.Collectors
	log        *zap.Logger
}

// NewResolver wires a Resolver.  timeout <= 0 relies on the caller's
// context alone.
func NewResolver(cl *hostname.Classifier, c *Cache, timeout time.Duration, m *metrics.Collectors, log *zap.Logger) *Resolver {
	return &Resolver{
		classifier: cl,
		cache:      c,
		timeout:    timeout,
		m:          m,
		log:        log.Named("tenant.resolver"),
	}
}

// Classify exposes the configured classifier.
func (r *Resolver) Classify(host string) hostname.Classification {
	return r.classifier.Classify(host)
}

// Resolve returns the active tenant for host, or nil.
func (r *Resolver) Resolve(ctx context.Context, host string) *Record {
	rec, _ := r.ResolveHost(ctx, host)
	return rec
}

// ResolveHost is Resolve plus the classification it computed.
func (r *Resolver) ResolveHost(ctx context.Context, host string) (*Record, hostname.Classification) {
	start := time.Now()
	cls := r.classifier.Classify(host)

	if !cls.IsTenant() || cls.Identifier == "" {
		r.observe(metrics.OutcomeSkipped, host, start)
		return nil, cls
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	rec, hit, err := r.cache.Lookup(ctx, cls.Identifier)
	switch {
	case err != nil:
		r.log.Error("tenant resolution failed",
			zap.String("hostname", host),
			zap.String("identifier", cls.Identifier),
			zap.Error(err))
		r.observe(metrics.OutcomeError, host, start)
		return nil, cls
	case rec == nil:
		r.log.Debug("tenant not found",
			zap.String("hostname", host),
			zap.String("identifier", cls.Identifier))
		r.observe(metrics.OutcomeNotFound, host, start)
	case hit:
		r.observe(metrics.OutcomeHit, host, start)
	default:
		r.observe(metrics.OutcomeMiss, host, start)
	}
	return rec, cls
}

func (r *Resolver) observe(outcome, host string, start time.Time) {
	d := time.Since(start)
	r.m.ObserveResolution(outcome, d)
	r.log.Debug("tenant.resolution.duration",
		zap.String("hostname", host),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", d))
}
