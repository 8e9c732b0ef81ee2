// internal/middleware/tenant.go
//
// Host-based tenant routing.
//
// Context
// -------
// Every request that is not a health check, auth callback, or static asset
// is classified by host and, for subdomain and custom-domain hosts,
// resolved to an active tenant before the handler runs:
//
//   - `www.` hosts → 301 to the apex, path and query preserved.
//   - root and localhost hosts → pass through with no tenant (platform).
//   - tenant hosts that resolve → pass through with tenant.WithRecord.
//   - tenant hosts that do not → 404.
//
// Resolution errors are logged by the resolver and surface here as the
// 404 branch; the request never sees a 5xx because the cache or database
// hiccupped.
package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/hostname"
	"github.com/yanizio/storehub/internal/tenant"
)

// Tenant returns the routing middleware.
func Tenant(res *tenant.Resolver, log *zap.Logger) func(http.Handler) http.Handler {
	log = log.Named("routing")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hostname.ShouldBypassRouting(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if apex, ok := hostname.NormalizeWWW(r.Host); ok {
				target := scheme(r) + "://" + apex + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}

			rec, cls := res.ResolveHost(r.Context(), r.Host)
			if !cls.IsTenant() {
				next.ServeHTTP(w, r)
				return
			}
			if rec == nil {
				log.Debug("unknown tenant host",
					zap.String("host", r.Host),
					zap.String("kind", string(cls.Kind)))
				http.NotFound(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(tenant.WithRecord(r.Context(), rec)))
		})
	}
}
