// cmd/web/router.go
//
// HTTP routing tree.  Probes and /metrics sit outside ForceHTTPS so load
// balancers can reach them over plain HTTP; everything else is redirected
// when https is forced.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/acl"
	"github.com/yanizio/storehub/internal/admin"
	"github.com/yanizio/storehub/internal/auth"
	"github.com/yanizio/storehub/internal/cache"
	"github.com/yanizio/storehub/internal/config"
	"github.com/yanizio/storehub/internal/health"
	"github.com/yanizio/storehub/internal/middleware"
	"github.com/yanizio/storehub/internal/tenant"
	"github.com/yanizio/storehub/modules/debug"
)

// services are the long-lived collaborators the routes need.
type services struct {
	db    health.Pinger
	kv    *cache.Store
	cache *tenant.Cache
	res   *tenant.Resolver
	inv   *tenant.Invalidator
	warm  *tenant.Warmer
	mut   *tenant.Mutator
}

func newRouter(cfg *config.Config, s services, lg *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Security)

	r.Get("/api/health", health.Live)
	r.Get("/readyz", health.Ready(s.db, health.PingFunc(s.kv.Ping)))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))

		if cfg.Admin.Token != "" {
			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.BearerToken(cfg.Admin.Token), acl.RequireRole("admin"))
				r.Mount("/", admin.New(s.cache, s.inv, s.warm, s.mut, lg).Routes())
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Tenant(s.res, lg))
			r.Get("/debug/tenant", debug.Handler(s.res))
			r.Handle("/*", http.HandlerFunc(app))
		})
	})
	return r
}

// app is the tenant-facing application placeholder: it answers with the
// resolved tenant's identity.  Storefront rendering plugs in here.
func app(w http.ResponseWriter, r *http.Request) {
	rec := tenant.FromContext(r.Context())
	if rec == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("storehub platform\n"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Tenant-ID", rec.ID)
	_, _ = w.Write([]byte(rec.Subdomain + "\n"))
}
