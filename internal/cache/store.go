// internal/cache/store.go
//
// Store: the process-wide cache adapter.
//
// Context
// -------
// The routing path must never fail because the cache did.  Store wraps one
// Client and converts every backend error into a logged, counted miss:
//
//   - Unconfigured (nil factory) - every call is a no-op miss.  Callers
//     fall through to the database on every request, slow but correct.
//   - Construction failure - logged once, then treated as unconfigured.
//   - Consecutive failures reaching FailureThreshold - the store marks
//     itself down for Cooldown and short-circuits to misses.  The first
//     call after the cooldown tries the backend again.
//
// The Client is built on first use and reused for the life of the
// process.
//
// Notes
// -----
//   - Context cancellation is reported as Failed but never trips the
//     cooldown; a client hanging up says nothing about the backend.
//   - Oxford commas, two spaces after periods.
package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/metrics"
)

// Outcome of a Store read.
type Outcome int

const (
	Miss Outcome = iota
	Hit
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Failed:
		return "failed"
	default:
		return "miss"
	}
}

var errClosed = errors.New("cache: store closed")

// Factory builds the backend Client on first use.
type Factory func() (Client, error)

// Options tunes failure handling.  A FailureThreshold of zero or below
// disables the cooldown.
type Options struct {
	FailureThreshold int
	Cooldown         time.Duration
}

// Store is safe for concurrent use.
type Store struct {
	factory Factory
	opts    Options
	m       *metrics.Collectors
	log     *zap.Logger
	now     func() time.Time

	once    sync.Once
	client  Client
	initErr error
	broken  atomic.Bool

	failures  atomic.Int64
	downUntil atomic.Int64 // UnixNano, 0 = up
}

// NewStore wires a Store.  A nil factory yields a permanently unavailable
// store.
func NewStore(factory Factory, opts Options, m *metrics.Collectors, log *zap.Logger) *Store {
	s := &Store{
		factory: factory,
		opts:    opts,
		m:       m,
		log:     log.Named("cache"),
		now:     time.Now,
	}
	if factory == nil {
		s.log.Warn("cache backend not configured; every lookup goes to the database")
	}
	s.m.BackendAvailable.Set(boolGauge(factory != nil))
	return s
}

// Available reports whether the backend is configured, constructible, and
// not cooling down.
func (s *Store) Available() bool {
	if s.factory == nil || s.broken.Load() {
		return false
	}
	until := s.downUntil.Load()
	return until == 0 || s.now().UnixNano() >= until
}

// Get reads key.  Failed means the backend errored; callers treat it as a
// miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, Outcome) {
	c := s.backend()
	if c == nil {
		return nil, Miss
	}
	b, err := c.Get(ctx, key)
	switch {
	case err == nil:
		s.ok()
		return b, Hit
	case errors.Is(err, ErrMiss):
		s.ok()
		return nil, Miss
	default:
		s.fail("get", key, err)
		return nil, Failed
	}
}

// Set writes val with ttl and reports whether it was stored.
func (s *Store) Set(ctx context.Context, key string, val []byte, ttl time.Duration) bool {
	c := s.backend()
	if c == nil {
		return false
	}
	if err := c.Set(ctx, key, val, ttl); err != nil {
		s.fail("set", key, err)
		return false
	}
	s.ok()
	return true
}

// Delete removes keys and returns how many existed.
func (s *Store) Delete(ctx context.Context, keys ...string) int {
	c := s.backend()
	if c == nil || len(keys) == 0 {
		return 0
	}
	n, err := c.Del(ctx, keys...)
	if err != nil {
		s.fail("delete", keys[0], err)
		return n
	}
	s.ok()
	return n
}

// DeleteByPattern removes every key matching pattern.  A partial failure
// returns the count removed before the error.
func (s *Store) DeleteByPattern(ctx context.Context, pattern string) int {
	c := s.backend()
	if c == nil {
		return 0
	}
	n, err := c.DeletePattern(ctx, pattern)
	if err != nil {
		s.fail("delete_pattern", pattern, err)
		return n
	}
	s.ok()
	return n
}

// Ping checks the backend; used by readiness probes only.
func (s *Store) Ping(ctx context.Context) error {
	c := s.backend()
	if c == nil {
		return errors.New("cache: backend unavailable")
	}
	return c.Ping(ctx)
}

// Close releases the backend if it was ever built.  A store that was
// never used stays unbuilt; any later call sees a missing backend.
func (s *Store) Close() error {
	s.once.Do(func() { s.initErr = errClosed; s.broken.Store(true) })
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

/*──────────────────────────── internals ───────────────────────────────────*/

func (s *Store) backend() Client {
	if s.factory == nil {
		return nil
	}
	if until := s.downUntil.Load(); until != 0 {
		if s.now().UnixNano() < until {
			return nil
		}
		if s.downUntil.CompareAndSwap(until, 0) {
			s.log.Info("cache backend cooldown over; retrying")
			s.m.BackendAvailable.Set(1)
		}
	}
	s.once.Do(func() {
		s.client, s.initErr = s.factory()
		if s.initErr != nil {
			s.broken.Store(true)
			s.log.Error("cache backend construction failed", zap.Error(s.initErr))
			s.m.BackendAvailable.Set(0)
		}
	})
	if s.initErr != nil {
		return nil
	}
	return s.client
}

func (s *Store) ok() { s.failures.Store(0) }

func (s *Store) fail(op, key string, err error) {
	s.m.BackendErrors.WithLabelValues(op).Inc()
	s.log.Warn("cache backend error",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))

	if errors.Is(err, context.Canceled) || s.opts.FailureThreshold <= 0 {
		return
	}
	if s.failures.Add(1) < int64(s.opts.FailureThreshold) {
		return
	}
	s.failures.Store(0)
	s.downUntil.Store(s.now().Add(s.opts.Cooldown).UnixNano())
	s.m.BackendAvailable.Set(0)
	s.log.Warn("cache backend marked down",
		zap.Int("consecutive_failures", s.opts.FailureThreshold),
		zap.Duration("cooldown", s.opts.Cooldown))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
