package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(RedisOptions{Addr: mr.Addr()})
	t.Cleanup(func() { _ = r.Close() })
	return mr, r
}

func TestRedis_GetSet(t *testing.T) {
	mr, r := setupRedis(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "tenant:acme")
	require.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Set(ctx, "tenant:acme", []byte("payload"), 5*time.Minute))
	got, err := r.Get(ctx, "tenant:acme")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	assert.Equal(t, 5*time.Minute, mr.TTL("tenant:acme"))

	mr.FastForward(6 * time.Minute)
	_, err = r.Get(ctx, "tenant:acme")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedis_Del(t *testing.T) {
	mr, r := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("tenant:a", "1"))
	require.NoError(t, mr.Set("tenant:b", "2"))

	n, err := r.Del(ctx, "tenant:a", "tenant:b", "tenant:c")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = r.Del(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedis_DeletePattern(t *testing.T) {
	mr, r := setupRedis(t)
	ctx := context.Background()

	// More than one scan batch.
	for i := 0; i < scanBatch+25; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("tenant:t%04d", i), "v"))
	}
	require.NoError(t, mr.Set("session:keep", "v"))

	n, err := r.DeletePattern(ctx, "tenant:*")
	require.NoError(t, err)
	assert.Equal(t, scanBatch+25, n)
	assert.True(t, mr.Exists("session:keep"))
	assert.Len(t, mr.Keys(), 1)
}

func TestRedis_ErrorsWhenDown(t *testing.T) {
	mr, r := setupRedis(t)
	ctx := context.Background()
	mr.Close()

	_, err := r.Get(ctx, "tenant:acme")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Error(t, r.Ping(ctx))
}

func TestNewRedisFromClient(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, r.Ping(context.Background()))
}
