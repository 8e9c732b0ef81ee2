package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/cache"
	"github.com/yanizio/storehub/internal/hostname"
)

func newTestResolver(t *testing.T, h *harness) *Resolver {
	t.Helper()
	cl := hostname.NewClassifier("example.com", nil)
	return NewResolver(cl, h.cache, DefaultLookupTimeout, h.m, zap.NewNop())
}

func TestResolverHosts(t *testing.T) {
	h := newHarness(t, cache.NewMemory(16), CacheOptions{}, acme())
	r := newTestResolver(t, h)
	ctx := context.Background()

	tests := []struct {
		host   string
		wantID string
	}{
		{"acme.example.com", acme().ID},
		{"ACME.example.com:443", acme().ID},
		{"shop.acme.io", acme().ID},
		{"example.com", ""},
		{"www.example.com", ""},
		{"localhost:3000", ""},
		{"127.0.0.1", ""},
		{"ghost.example.com", ""},
		{"unknown.io", ""},
	}
	for _, tc := range tests {
		t.Run(tc.host, func(t *testing.T) {
			rec := r.Resolve(ctx, tc.host)
			if tc.wantID == "" {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assert.Equal(t, tc.wantID, rec.ID)
		})
	}
}

func TestResolverSkipsDatabaseForPlatformHosts(t *testing.T) {
	h := newHarness(t, cache.NewMemory(16), CacheOptions{}, acme())
	r := newTestResolver(t, h)

	for _, host := range []string{"example.com", "www.example.com", "localhost", "192.168.1.20:8080"} {
		rec, cls := r.ResolveHost(context.Background(), host)
		assert.Nil(t, rec, host)
		assert.False(t, cls.IsTenant(), host)
	}
	assert.Zero(t, h.src.findCount())
	assert.Equal(t, Stats{}, h.cache.Metrics())
}

func TestResolverDatabaseErrorIsNoTenant(t *testing.T) {
	h := newHarness(t, cache.NewMemory(16), CacheOptions{}, acme())
	h.src.findErr = errors.New("too many connections")
	r := newTestResolver(t, h)

	rec, cls := r.ResolveHost(context.Background(), "acme.example.com")
	assert.Nil(t, rec)
	assert.Equal(t, hostname.KindSubdomain, cls.Kind)
	assert.Equal(t, "acme", cls.Identifier)
}

func TestResolverRecordsOutcomes(t *testing.T) {
	h := newHarness(t, cache.NewMemory(16), CacheOptions{}, acme())
	r := newTestResolver(t, h)
	ctx := context.Background()

	r.Resolve(ctx, "acme.example.com") // miss
	r.Resolve(ctx, "acme.example.com") // hit
	r.Resolve(ctx, "ghost.example.com")
	r.Resolve(ctx, "example.com")

	assert.Equal(t, 4, testutil.CollectAndCount(h.m.ResolutionDuration))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.m.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.m.CacheMisses))
}
