// internal/cache/redis.go
//
// Redis-backed Client.
//
// Context
// -------
// The go-redis client pools connections internally and dials lazily, so
// constructing it costs nothing until the first command.  Every command
// runs under the caller's context and the client's own dial, read, and
// write timeouts; a slow backend therefore surfaces as an error instead of
// hanging the request.
//
// Pattern deletion walks SCAN with MATCH rather than KEYS so a large
// keyspace never blocks the server, deleting in batches of scanBatch keys.
//
// Notes
// -----
//   - No retries.  A failed command is reported once; the Store decides
//     what a failure means.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const scanBatch = 500

// RedisOptions carries the connection tunables read from config.
type RedisOptions struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Redis implements Client on top of *redis.Client.
type Redis struct {
	rdb *redis.Client
}

// NewRedis builds the client.  No connection is opened yet.
func NewRedis(o RedisOptions) *Redis {
	return &Redis{rdb: redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Username:     o.Username,
		Password:     o.Password,
		DB:           o.DB,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		MaxRetries:   -1,
	})}
}

// NewRedisFromClient wraps an existing go-redis client, mostly for tests.
func NewRedisFromClient(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, val, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := r.rdb.Del(ctx, keys...).Result()
	return int(n), err
}

// DeletePattern removes every key matching pattern and returns the count.
func (r *Redis) DeletePattern(ctx context.Context, pattern string) (int, error) {
	var (
		total int
		batch = make([]string, 0, scanBatch)
	)
	iter := r.rdb.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			n, err := r.Del(ctx, batch...)
			total += n
			if err != nil {
				return total, err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return total, err
	}
	n, err := r.Del(ctx, batch...)
	return total + n, err
}

func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.rdb.Close() }
