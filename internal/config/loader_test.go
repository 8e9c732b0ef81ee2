package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
http:
  listen_addr: ":8080"
database:
  global_dsn: "storehub@tcp(127.0.0.1:3306)/control?parseTime=true"
  global_password: "vault:secret/storehub/db#password"
cache:
  driver: redis
  addr: "127.0.0.1:6379"
  cooldown: 30s
tenancy:
  root_domain: example.com
  reserved_subdomains: [www, api, admin]
  coalesce_misses: true
`

func writeRoot(t *testing.T, yml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yml), 0o644))
	return root
}

func fakeVault(secrets map[string]string) SecretResolver {
	return func(_ context.Context, path, key string) (string, error) {
		v, ok := secrets[path+"#"+key]
		if !ok {
			return "", errors.New("secret not found")
		}
		return v, nil
	}
}

func TestLoadFromLayersAndDefaults(t *testing.T) {
	root := writeRoot(t, baseYAML)
	t.Setenv("STOREHUB_TENANCY__ROOT_DOMAIN", "shops.test")
	t.Setenv("STOREHUB_HTTP__FORCE_HTTPS", "true")

	cfg, err := LoadFrom(context.Background(), root,
		fakeVault(map[string]string{"secret/storehub/db#password": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.True(t, cfg.HTTP.ForceHTTPS)
	assert.Equal(t, "shops.test", cfg.Tenancy.RootDomain)
	assert.Equal(t, []string{"www", "api", "admin"}, cfg.Tenancy.ReservedSubdomains)
	assert.True(t, cfg.Tenancy.CoalesceMisses)
	assert.Equal(t, "s3cret", cfg.Database.GlobalPassword)
	assert.Equal(t, 30*time.Second, cfg.Cache.Cooldown)
	assert.Equal(t, root, cfg.Paths.Root)

	// defaults
	assert.Equal(t, 5*time.Minute, cfg.Tenancy.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.Tenancy.LookupTimeout)
	assert.Equal(t, 15, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Cache.FailureThreshold)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Same(t, cfg, Get())
}

func TestLoadFromVaultReferenceWithoutResolver(t *testing.T) {
	root := writeRoot(t, baseYAML)
	_, err := LoadFrom(context.Background(), root, nil)
	assert.ErrorIs(t, err, ErrNoResolver)
}

func TestLoadFromMalformedVaultReference(t *testing.T) {
	root := writeRoot(t, `
http: {listen_addr: ":8080"}
database: {global_dsn: "x", global_password: "vault:secret/db"}
tenancy: {root_domain: example.com}
`)
	_, err := LoadFrom(context.Background(), root, fakeVault(nil))
	assert.ErrorContains(t, err, "malformed vault reference")
}

func TestLoadFromValidation(t *testing.T) {
	cases := map[string]string{
		"missing root domain": `
http: {listen_addr: ":8080"}
database: {global_dsn: "x"}
`,
		"redis without addr": `
http: {listen_addr: ":8080"}
database: {global_dsn: "x"}
cache: {driver: redis}
tenancy: {root_domain: example.com}
`,
		"unknown driver": `
http: {listen_addr: ":8080"}
database: {global_dsn: "x"}
cache: {driver: memcached}
tenancy: {root_domain: example.com}
`,
		"short admin token": `
http: {listen_addr: ":8080"}
database: {global_dsn: "x"}
tenancy: {root_domain: example.com}
admin: {token: "abc"}
`,
		"idle above open": `
http: {listen_addr: ":8080"}
database: {global_dsn: "x", max_open_conns: 2, max_idle_conns: 4}
tenancy: {root_domain: example.com}
`,
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), writeRoot(t, yml), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromCooldownDisabled(t *testing.T) {
	root := writeRoot(t, `
http: {listen_addr: ":8080"}
database: {global_dsn: "x"}
cache: {driver: memory, failure_threshold: -1}
tenancy: {root_domain: example.com}
`)
	cfg, err := LoadFrom(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.Cache.FailureThreshold)

	_, err = LoadFrom(context.Background(), writeRoot(t, `
http: {listen_addr: ":8080"}
database: {global_dsn: "x"}
cache: {failure_threshold: -2}
tenancy: {root_domain: example.com}
`), nil)
	assert.Error(t, err)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(context.Background(), t.TempDir(), nil)
	assert.Error(t, err)
}

func TestRootDirFromEnv(t *testing.T) {
	t.Setenv("STOREHUB_ROOT", "/srv/storehub")
	assert.Equal(t, "/srv/storehub", RootDir())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "http.listen_addr", envKey("STOREHUB_HTTP__LISTEN_ADDR"))
	assert.Equal(t, "", envKey("STOREHUB_ROOT"))
}
