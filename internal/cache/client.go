// Package cache wraps the shared key/value backend that sits in front of the
// system of record.
//
// Two layers live here.  A Client talks to a concrete backend (Redis in
// production, an in-process LRU for single-node development) and returns
// errors verbatim.  A Store owns one lazily-built Client for the life of the
// process and turns every backend failure into a logged, counted miss so
// the request path never sees a cache error.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Client.Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Client is the minimal backend contract.  Patterns use glob syntax
// (`*`, `?`, `[...]`) as understood by Redis MATCH.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int, error)
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
