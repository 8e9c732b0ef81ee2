package tenant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/cache"
)

func TestWarmAllPrimesEveryIdentifier(t *testing.T) {
	recs := []*Record{acme()}
	for i := 0; i < 20; i++ {
		recs = append(recs, &Record{
			ID:        fmt.Sprintf("id-%02d", i),
			Subdomain: fmt.Sprintf("store%02d", i),
			Status:    StatusActive,
		})
	}
	recs = append(recs, &Record{ID: "paused", Subdomain: "paused", Status: StatusSuspended})

	mem := cache.NewMemory(64)
	h := newHarness(t, mem, CacheOptions{}, recs...)
	w := NewWarmer(h.cache, h.src, 4, h.m, zap.NewNop())

	res := w.WarmAll(context.Background())
	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, 21, res.Count)
	assert.Equal(t, 22, mem.Len(), "21 subdomains plus one custom domain")
	assert.Equal(t, 21.0, testutil.ToFloat64(h.m.TenantsWarmed))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.m.WarmRuns.WithLabelValues("ok")))

	_, hit, err := h.cache.Lookup(context.Background(), "shop.acme.io")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Zero(t, h.src.findCount())
}

func TestWarmAllBackendDown(t *testing.T) {
	h := newHarness(t, cache.NewMemory(4), CacheOptions{}, acme())
	unconfigured := cache.NewStore(nil, cache.Options{}, h.m, zap.NewNop())
	c := NewCache(unconfigured, h.src, CacheOptions{}, h.m, zap.NewNop())
	w := NewWarmer(c, h.src, 0, h.m, zap.NewNop())

	res := w.WarmAll(context.Background())
	assert.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.Zero(t, res.Count)
	assert.Zero(t, h.src.lists, "database is not read when nothing can be written")
	assert.Equal(t, 1.0, testutil.ToFloat64(h.m.WarmRuns.WithLabelValues("skipped")))
}

func TestWarmAllListFailure(t *testing.T) {
	h := newHarness(t, cache.NewMemory(4), CacheOptions{}, acme())
	h.src.listErr = errors.New("lock wait timeout exceeded")
	w := NewWarmer(h.cache, h.src, 2, h.m, zap.NewNop())

	res := w.WarmAll(context.Background())
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.m.WarmRuns.WithLabelValues("failed")))
}

func TestWarmAllWriteFailuresAreSkipped(t *testing.T) {
	h := newHarness(t, downClient{}, CacheOptions{}, acme())
	w := NewWarmer(h.cache, h.src, 2, h.m, zap.NewNop())

	res := w.WarmAll(context.Background())
	assert.True(t, res.Success)
	assert.Zero(t, res.Count)
}
