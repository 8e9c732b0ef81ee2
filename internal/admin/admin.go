// internal/admin/admin.go
//
// Operational HTTP endpoints.
//
// Context
// -------
// Mounted under /admin behind auth.BearerToken and acl.RequireRole, these
// routes expose cache invalidation, warming, lookup counters, and the
// routing-relevant tenant mutations:
//
//	POST   /cache/invalidate                {tenant_id} | {pattern} | {all:true}
//	POST   /cache/warm
//	GET    /cache/metrics
//	POST   /cache/metrics/reset
//	PUT    /tenants/{id}/subdomain          {subdomain}
//	PUT    /tenants/{id}/custom-domain      {domain}
//	DELETE /tenants/{id}/custom-domain
//	POST   /tenants/{id}/custom-domain/verify
//	PUT    /tenants/{id}/status             {status}
//	PUT    /tenants/{id}/tier               {tier}
//
// Every mutation returns only after the affected cache entries are gone.
//
// Notes
// -----
//   - Errors use RFC 7807 bodies; sentinels map to 404, 409, 422, and 503.
//   - Every call is logged with the principal's subject.
package admin

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/auth"
	"github.com/yanizio/storehub/internal/tenant"
)

// Handler serves the admin API.
type Handler struct {
	cache *tenant.Cache
	inv   *tenant.Invalidator
	warm  *tenant.Warmer
	mut   *tenant.Mutator
	log   *zap.Logger
}

// New wires a Handler.
func New(c *tenant.Cache, inv *tenant.Invalidator, w *tenant.Warmer, mut *tenant.Mutator, log *zap.Logger) *Handler {
	return &Handler{cache: c, inv: inv, warm: w, mut: mut, log: log.Named("admin")}
}

// Routes returns the admin router, ready to Mount.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/cache", func(r chi.Router) {
		r.Post("/invalidate", h.invalidate)
		r.Post("/warm", h.warmAll)
		r.Get("/metrics", h.metrics)
		r.Post("/metrics/reset", h.resetMetrics)
	})

	r.Route("/tenants/{id}", func(r chi.Router) {
		r.Put("/subdomain", h.setSubdomain)
		r.Put("/custom-domain", h.setCustomDomain)
		r.Delete("/custom-domain", h.removeCustomDomain)
		r.Post("/custom-domain/verify", h.verifyCustomDomain)
		r.Put("/status", h.setStatus)
		r.Put("/tier", h.setTier)
	})
	return r
}

/*──────────────────────────── cache ───────────────────────────────────────*/

type invalidateReq struct {
	TenantID string `json:"tenant_id"`
	Pattern  string `json:"pattern"`
	All      bool   `json:"all"`
}

type invalidateResp struct {
	Scope   string `json:"scope"`
	Deleted *int   `json:"deleted,omitempty"`
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateReq
	if err := readJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, err.Error())
		return
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.Pattern = strings.TrimSpace(req.Pattern)

	set := 0
	for _, b := range []bool{req.TenantID != "", req.Pattern != "", req.All} {
		if b {
			set++
		}
	}
	if set != 1 {
		writeProblem(w, http.StatusBadRequest, "exactly one of tenant_id, pattern, or all is required")
		return
	}

	ctx := r.Context()
	switch {
	case req.TenantID != "":
		if err := h.inv.InvalidateTenantByID(ctx, req.TenantID); err != nil {
			h.fail(w, r, "invalidate tenant", err)
			return
		}
		h.audit(r, "cache invalidated", zap.String("tenant_id", req.TenantID))
		writeJSON(w, http.StatusOK, invalidateResp{Scope: "tenant"})
	case req.Pattern != "":
		n := h.inv.InvalidatePattern(ctx, req.Pattern)
		h.audit(r, "cache invalidated", zap.String("pattern", req.Pattern), zap.Int("deleted", n))
		writeJSON(w, http.StatusOK, invalidateResp{Scope: "pattern", Deleted: &n})
	default:
		n := h.inv.InvalidateAll(ctx)
		h.audit(r, "cache invalidated", zap.Bool("all", true), zap.Int("deleted", n))
		writeJSON(w, http.StatusOK, invalidateResp{Scope: "all", Deleted: &n})
	}
}

type warmResp struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) warmAll(w http.ResponseWriter, r *http.Request) {
	res := h.warm.WarmAll(r.Context())
	h.audit(r, "cache warm requested", zap.Bool("success", res.Success), zap.Int("count", res.Count))

	out := warmResp{Success: res.Success, Count: res.Count}
	status := http.StatusOK
	if !res.Success {
		status = http.StatusServiceUnavailable
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
	}
	writeJSON(w, status, out)
}

type metricsResp struct {
	tenant.Stats
	Available bool   `json:"available"`
	TTL       string `json:"ttl"`
}

func (h *Handler) metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, metricsResp{
		Stats:     h.cache.Metrics(),
		Available: h.cache.Available(),
		TTL:       h.cache.TTL().String(),
	})
}

func (h *Handler) resetMetrics(w http.ResponseWriter, r *http.Request) {
	h.cache.ResetMetrics()
	h.audit(r, "cache metrics reset")
	w.WriteHeader(http.StatusNoContent)
}

/*──────────────────────────── tenants ─────────────────────────────────────*/

func (h *Handler) setSubdomain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subdomain string `json:"subdomain"`
	}
	h.mutate(w, r, &req, "subdomain", func(ctx context.Context, id string) error {
		return h.mut.SetSubdomain(ctx, id, req.Subdomain)
	})
}

func (h *Handler) setCustomDomain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Domain string `json:"domain"`
	}
	h.mutate(w, r, &req, "custom_domain", func(ctx context.Context, id string) error {
		if strings.TrimSpace(req.Domain) == "" {
			return tenant.ErrInvalid // removal has its own route
		}
		return h.mut.SetCustomDomain(ctx, id, req.Domain)
	})
}

func (h *Handler) removeCustomDomain(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, "custom_domain", func(ctx context.Context, id string) error {
		return h.mut.SetCustomDomain(ctx, id, "")
	})
}

func (h *Handler) verifyCustomDomain(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, "domain_verified", func(ctx context.Context, id string) error {
		return h.mut.VerifyCustomDomain(ctx, id)
	})
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status tenant.Status `json:"status"`
	}
	h.mutate(w, r, &req, "status", func(ctx context.Context, id string) error {
		return h.mut.SetStatus(ctx, id, req.Status)
	})
}

func (h *Handler) setTier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tier string `json:"tier"`
	}
	h.mutate(w, r, &req, "tier", func(ctx context.Context, id string) error {
		return h.mut.SetTier(ctx, id, req.Tier)
	})
}

// mutate decodes body into req (when non-nil), runs fn, and answers 204.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, req any, field string, fn func(context.Context, string) error) {
	id := chi.URLParam(r, "id")
	if req != nil {
		if err := readJSON(w, r, req); err != nil {
			writeProblem(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	start := time.Now()
	if err := fn(r.Context(), id); err != nil {
		h.fail(w, r, "update "+field, err, zap.String("tenant_id", id))
		return
	}
	h.audit(r, "tenant updated",
		zap.String("tenant_id", id),
		zap.String("field", field),
		zap.Duration("elapsed", time.Since(start)))
	w.WriteHeader(http.StatusNoContent)
}

/*──────────────────────────── logging ─────────────────────────────────────*/

func (h *Handler) audit(r *http.Request, msg string, fields ...zap.Field) {
	h.log.Info(msg, append(fields, subject(r))...)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error, fields ...zap.Field) {
	status := writeError(w, err)
	fields = append(fields, subject(r), zap.String("op", op), zap.Int("status", status), zap.Error(err))
	if status >= http.StatusInternalServerError {
		h.log.Error("admin request failed", fields...)
		return
	}
	h.log.Info("admin request rejected", fields...)
}

func subject(r *http.Request) zap.Field {
	p, _ := auth.FromContext(r.Context())
	return zap.String("subject", p.Subject)
}
