package tenant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/cache"
	"github.com/yanizio/storehub/internal/metrics"
)

// fakeSource is an in-memory Writer that counts database round trips.
type fakeSource struct {
	mu      sync.Mutex
	rows    map[string]*Record
	findErr error
	listErr error
	gate    chan struct{} // when set, FindByIdentifier blocks until closed
	finds   int
	lists   int
}

func newFakeSource(recs ...*Record) *fakeSource {
	f := &fakeSource{rows: map[string]*Record{}}
	for _, r := range recs {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeSource) findCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finds
}

func (f *fakeSource) FindByIdentifier(ctx context.Context, identifier string) (*Record, error) {
	f.mu.Lock()
	f.finds++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	id := strings.ToLower(identifier)
	for _, r := range f.rows {
		if r.Status != StatusActive {
			continue
		}
		if r.Subdomain == id || (r.CustomDomain != nil && *r.CustomDomain == id) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeSource) ListActive(context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Record
	for _, r := range f.rows {
		if r.Status == StatusActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeSource) Identifiers(_ context.Context, id string) (Identifiers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return Identifiers{}, ErrNotFound
	}
	return r.Identifiers(), nil
}

func (f *fakeSource) update(id string, fn func(*Record) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return ErrNotFound
	}
	return fn(r)
}

func (f *fakeSource) UpdateSubdomain(_ context.Context, id, subdomain string) error {
	f.mu.Lock()
	for _, r := range f.rows {
		if r.ID != id && r.Subdomain == subdomain {
			f.mu.Unlock()
			return ErrConflict
		}
	}
	f.mu.Unlock()
	return f.update(id, func(r *Record) error { r.Subdomain = subdomain; return nil })
}

func (f *fakeSource) UpdateCustomDomain(_ context.Context, id string, domain *string) error {
	return f.update(id, func(r *Record) error {
		r.CustomDomain = domain
		r.DomainVerifiedAt = nil
		return nil
	})
}

func (f *fakeSource) MarkDomainVerified(_ context.Context, id string) error {
	return f.update(id, func(r *Record) error {
		now := time.Now()
		r.DomainVerifiedAt = &now
		return nil
	})
}

func (f *fakeSource) UpdateStatus(_ context.Context, id string, status Status) error {
	return f.update(id, func(r *Record) error { r.Status = status; return nil })
}

func (f *fakeSource) UpdateTier(_ context.Context, id, tier string) error {
	return f.update(id, func(r *Record) error { r.Tier = tier; return nil })
}

// downClient fails every operation.
type downClient struct{}

var errDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (downClient) Get(context.Context, string) ([]byte, error) { return nil, errDown }
func (downClient) Set(context.Context, string, []byte, time.Duration) error {
	return errDown
}
func (downClient) Del(context.Context, ...string) (int, error)        { return 0, errDown }
func (downClient) DeletePattern(context.Context, string) (int, error) { return 0, errDown }
func (downClient) Ping(context.Context) error                         { return errDown }
func (downClient) Close() error                                       { return nil }

// harness wires the real cache stack over a fake database.
type harness struct {
	src   *fakeSource
	kv    *cache.Store
	cache *Cache
	m     *metrics.Collectors
}

func newHarness(t *testing.T, c cache.Client, opts CacheOptions, recs ...*Record) *harness {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	src := newFakeSource(recs...)
	kv := cache.NewStore(func() (cache.Client, error) { return c, nil }, cache.Options{}, m, zap.NewNop())
	t.Cleanup(func() { _ = kv.Close() })
	return &harness{
		src:   src,
		kv:    kv,
		cache: NewCache(kv, src, opts, m, zap.NewNop()),
		m:     m,
	}
}

func strPtr(s string) *string { return &s }

func acme() *Record {
	return &Record{
		ID:           "4f6c1a2e-0000-4000-8000-000000000001",
		Subdomain:    "acme",
		CustomDomain: strPtr("shop.acme.io"),
		Settings:     Settings{"theme": "dark"},
		Status:       StatusActive,
		Tier:         "pro",
	}
}
