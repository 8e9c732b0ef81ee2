// internal/tenant/invalidate.go
//
// Explicit cache invalidation.
//
// Context
// -------
// Mutations of subdomain, custom domain, status, or tier must be followed
// by a synchronous invalidation before the mutation reports success;
// otherwise a later request may route on stale data for up to the TTL.
// Invalidation itself never fails a mutation.  When the backend is down
// the failure is logged and the TTL remains the consistency bound.
//
// A tenant may be cached under two keys at once, its subdomain and its
// custom domain, so tenant-level invalidation always deletes both.
package tenant

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/metrics"
)

// Invalidator evicts tenant entries from the shared cache.
type Invalidator struct {
	kv  KV
	src Source
	m   *metrics.Collectors
	log *zap.Logger
}

// NewInvalidator wires an Invalidator.
func NewInvalidator(kv KV, src Source, m *metrics.Collectors, log *zap.Logger) *Invalidator {
	return &Invalidator{kv: kv, src: src, m: m, log: log.Named("tenant.invalidate")}
}

// InvalidateTenantByID loads the tenant's current identifiers and deletes
// both keys.  The returned error only reports the identifier lookup,
// ErrNotFound included; cache failures are logged.
func (i *Invalidator) InvalidateTenantByID(ctx context.Context, id string) error {
	ids, err := i.src.Identifiers(ctx, id)
	if err != nil {
		i.log.Warn("invalidate tenant: identifier lookup failed",
			zap.String("tenant_id", id), zap.Error(err))
		return fmt.Errorf("invalidate tenant %s: %w", id, err)
	}
	i.deleteKeys(ctx, "tenant", ids.List())
	return nil
}

// InvalidateIdentifiers deletes the entries for the given identifiers and
// returns how many existed.
func (i *Invalidator) InvalidateIdentifiers(ctx context.Context, identifiers ...string) int {
	return i.deleteKeys(ctx, "identifiers", identifiers)
}

// InvalidateAll deletes every tenant entry.  Operational resets only.
func (i *Invalidator) InvalidateAll(ctx context.Context) int {
	return i.deletePattern(ctx, "all", KeyPrefix+"*")
}

// InvalidatePattern deletes tenant entries matching a glob.  The pattern
// is confined to the tenant namespace; the caller owns its correctness.
func (i *Invalidator) InvalidatePattern(ctx context.Context, pattern string) int {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), KeyPrefix)
	if pattern == "" {
		return 0
	}
	return i.deletePattern(ctx, "pattern", KeyPrefix+pattern)
}

func (i *Invalidator) deleteKeys(ctx context.Context, scope string, identifiers []string) int {
	seen := make(map[string]struct{}, len(identifiers))
	keys := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		k := Key(id)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return 0
	}
	if !i.kv.Available() {
		i.log.Warn("invalidation skipped, cache unavailable; entries expire by TTL",
			zap.Strings("keys", keys))
		return 0
	}

	n := i.kv.Delete(ctx, keys...)
	i.m.Invalidations.WithLabelValues(scope).Inc()
	i.m.KeysInvalidated.Add(float64(n))
	i.log.Info("tenant cache invalidated",
		zap.String("scope", scope),
		zap.Strings("keys", keys),
		zap.Int("deleted", n))
	return n
}

func (i *Invalidator) deletePattern(ctx context.Context, scope, pattern string) int {
	if !i.kv.Available() {
		i.log.Warn("invalidation skipped, cache unavailable; entries expire by TTL",
			zap.String("pattern", pattern))
		return 0
	}

	n := i.kv.DeleteByPattern(ctx, pattern)
	i.m.Invalidations.WithLabelValues(scope).Inc()
	i.m.KeysInvalidated.Add(float64(n))
	i.log.Info("tenant cache invalidated",
		zap.String("scope", scope),
		zap.String("pattern", pattern),
		zap.Int("deleted", n))
	return n
}
