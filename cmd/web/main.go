// cmd/web/main.go
//
// storehub – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (host-wide file → .env fallback) and a console logger.
//
//  2. Load configuration; `vault:` references resolve through Vault when
//     VAULT_ADDR is set.
//
//  3. Start the daily rotating logger (tees to console in a TTY).
//
//  4. Open the control-plane DB and log the active-tenant count.
//
//  5. Build the cache store (redis, memory, or none), Prometheus
//     collectors, and the tenant cache, resolver, invalidator, warmer,
//     and mutator on top of it.
//
//  6. Optionally warm the cache in the background.
//
//  7. Build the router:
//
//     • /api/health, /readyz        – probes, served over plain HTTP
//     • /metrics                    – Prometheus
//     (everything below is behind ForceHTTPS when enabled)
//     • /admin/*                    – bearer token + admin role
//     • /debug/tenant               – routing echo
//     • everything else             – tenant routing → app handler
//
//  8. Serve until SIGINT/SIGTERM, then drain with a bounded shutdown.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/cache"
	"github.com/yanizio/storehub/internal/config"
	"github.com/yanizio/storehub/internal/database"
	"github.com/yanizio/storehub/internal/hostname"
	"github.com/yanizio/storehub/internal/logger"
	"github.com/yanizio/storehub/internal/metrics"
	"github.com/yanizio/storehub/internal/server"
	"github.com/yanizio/storehub/internal/tenant"
	"github.com/yanizio/storehub/internal/vault"
)

const serverEnvPath = "/usr/local/etc/storehub/global.env"

// loadEnv prefers the host-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	loadEnv()
	logger.Bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		zap.L().Error("storehub exited", zap.Error(err))
		_ = zap.L().Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Configuration ───────────────────────────────────────────────
	//
	var secrets config.SecretResolver
	if vault.Configured() {
		vc, err := vault.New(ctx, zap.L())
		if err != nil {
			return err
		}
		secrets = vc.Resolve
	}
	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return err
	}

	logDir := cfg.Log.Dir
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(cfg.Paths.Root, logDir)
	}
	lg, err := logger.New(logger.Options{Dir: logDir, Level: cfg.Log.Level, Tee: runningInTTY()})
	if err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	//
	// ── 2.  Control-plane DB ────────────────────────────────────────────
	//
	dsn, err := database.BuildDSN(cfg.Database.GlobalDSN, cfg.Database.GlobalPassword)
	if err != nil {
		return err
	}
	lg.Info("connecting to control-plane DB")
	db, err := database.Open(ctx, dsn, database.Options{
		MaxOpen:      cfg.Database.MaxOpenConns,
		MaxIdle:      cfg.Database.MaxIdleConns,
		MaxLifetime:  cfg.Database.ConnMaxLifetime,
		PingAttempts: cfg.Database.PingAttempts,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	// Log active-tenant count as an early sanity check.
	var active int
	_ = db.GetContext(ctx, &active, `SELECT COUNT(*) FROM tenant WHERE status = 'active'`)
	lg.Info("control-plane DB online", zap.Int("active_tenants", active))

	//
	// ── 3.  Cache and tenant services ───────────────────────────────────
	//
	m := metrics.New(prometheus.DefaultRegisterer)
	kv := cache.NewStore(cacheFactory(cfg.Cache), cache.Options{
		FailureThreshold: cfg.Cache.FailureThreshold,
		Cooldown:         cfg.Cache.Cooldown,
	}, m, lg)
	defer kv.Close()

	store := tenant.NewStore(db)
	cl := hostname.NewClassifier(cfg.Tenancy.RootDomain, cfg.Tenancy.ReservedSubdomains)
	tc := tenant.NewCache(kv, store, tenant.CacheOptions{
		TTL:          cfg.Tenancy.CacheTTL,
		Coalesce:     cfg.Tenancy.CoalesceMisses,
		FetchTimeout: cfg.Tenancy.LookupTimeout,
	}, m, lg)
	res := tenant.NewResolver(cl, tc, cfg.Tenancy.LookupTimeout, m, lg)
	inv := tenant.NewInvalidator(kv, store, m, lg)
	warm := tenant.NewWarmer(tc, store, cfg.Tenancy.WarmConcurrency, m, lg)
	mut := tenant.NewMutator(store, inv, cl, lg)

	if cfg.Tenancy.WarmOnStart {
		go warm.WarmAll(ctx)
	}

	//
	// ── 4.  Router ──────────────────────────────────────────────────────
	//
	if cfg.Admin.Token == "" {
		lg.Warn("admin.token not set; /admin routes disabled")
	}
	r := newRouter(cfg, services{
		db:    db,
		kv:    kv,
		cache: tc,
		res:   res,
		inv:   inv,
		warm:  warm,
		mut:   mut,
	}, lg)

	//
	// ── 5.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	errc := make(chan error, 1)
	go func() {
		lg.Info("listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down", zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

// cacheFactory maps config to a lazily-built backend.  An empty driver
// returns nil, which disables caching.
func cacheFactory(c config.Cache) cache.Factory {
	switch c.Driver {
	case "redis":
		return func() (cache.Client, error) {
			return cache.NewRedis(cache.RedisOptions{
				Addr:         c.Addr,
				Username:     c.Username,
				Password:     c.Password,
				DB:           c.DB,
				PoolSize:     c.PoolSize,
				MinIdleConns: c.MinIdleConns,
				DialTimeout:  c.DialTimeout,
				ReadTimeout:  c.ReadTimeout,
				WriteTimeout: c.WriteTimeout,
			}), nil
		}
	case "memory":
		return func() (cache.Client, error) { return cache.NewMemory(c.MemoryCapacity), nil }
	default:
		return nil
	}
}
