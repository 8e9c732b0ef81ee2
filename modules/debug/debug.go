// modules/debug/debug.go
//
// Diagnostic endpoint that echoes how the current request was routed:
// host classification, the resolved tenant (if any), and remote IP.
// Mounted at /debug/tenant; the routing middleware has already run.
package debug

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/yanizio/storehub/internal/hostname"
	"github.com/yanizio/storehub/internal/tenant"
)

// Classifier is the slice of tenant.Resolver this handler needs.
type Classifier interface {
	Classify(host string) hostname.Classification
}

type tenantView struct {
	ID           string        `json:"id"`
	Subdomain    string        `json:"subdomain"`
	CustomDomain *string       `json:"custom_domain,omitempty"`
	Status       tenant.Status `json:"status"`
	Tier         string        `json:"tier,omitempty"`
}

// Handler writes a JSON blob with selected routing fields.
func Handler(cl Classifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cls := cl.Classify(r.Host)
		out := map[string]any{
			"host":       r.Host,
			"kind":       cls.Kind,
			"identifier": cls.Identifier,
			"ip":         clientIP(r),
			"tenant":     nil,
		}
		if rec := tenant.FromContext(r.Context()); rec != nil {
			out["tenant"] = tenantView{
				ID:           rec.ID,
				Subdomain:    rec.Subdomain,
				CustomDomain: rec.CustomDomain,
				Status:       rec.Status,
				Tier:         rec.Tier,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
}

// clientIP grabs the remote address without port.
func clientIP(r *http.Request) string {
	h, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return h
}
