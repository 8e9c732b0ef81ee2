// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/storehub/internal/hostname"
)

// ForceHTTPS wraps h.  If enabled, the request is plain HTTP, and the host
// is not a local development host, the wrapper issues a 308 Permanent
// Redirect to the HTTPS version of the same URL.  A TLS-terminating proxy
// is trusted through X-Forwarded-Proto.
func ForceHTTPS(enabled bool) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		if !enabled {
			return h
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSecure(r) || hostname.IsLocal(r.Host) {
				h.ServeHTTP(w, r)
				return
			}
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}
}

func isSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func scheme(r *http.Request) string {
	if isSecure(r) {
		return "https"
	}
	return "http"
}
