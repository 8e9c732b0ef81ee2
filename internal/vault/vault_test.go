package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const kvBody = `{
  "data": {
    "data": {"password": "s3cret", "port": 3306},
    "metadata": {"created_time": "2025-06-05T12:00:00Z", "deletion_time": "", "destroyed": false, "version": 1}
  }
}`

func newTestClient(t *testing.T) (*Client, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/storehub/db" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(kvBody))
	}))
	t.Cleanup(srv.Close)

	cfg := vault.DefaultConfig()
	cfg.Address = srv.URL
	api, err := vault.NewClient(cfg)
	require.NoError(t, err)
	api.SetToken("test-token")
	return newClient(api, zap.NewNop()), &hits
}

func TestResolveCachesValue(t *testing.T) {
	c, hits := newTestClient(t)
	ctx := context.Background()

	v, err := c.Resolve(ctx, "secret/storehub/db", "password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	v, err = c.Resolve(ctx, "secret/storehub/db", "password")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)
	assert.EqualValues(t, 1, hits.Load())

	now := time.Now()
	c.now = func() time.Time { return now.Add(ResolveTTL + time.Second) }
	_, err = c.Resolve(ctx, "secret/storehub/db", "password")
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestGetKVErrors(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.GetKV(ctx, "", "password", 0)
	assert.Error(t, err)

	_, err = c.GetKV(ctx, "secret/storehub/db", "missing", 0)
	assert.ErrorContains(t, err, "not found")

	_, err = c.GetKV(ctx, "secret/storehub/db", "port", 0)
	assert.ErrorContains(t, err, "not a string")

	_, err = c.GetKV(ctx, "secret/other", "password", 0)
	assert.Error(t, err)
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/storehub/db")
	assert.Equal(t, "secret", m)
	assert.Equal(t, "storehub/db", r)

	m, r = splitMount("/kv/")
	assert.Equal(t, "kv", m)
	assert.Equal(t, "", r)
}
