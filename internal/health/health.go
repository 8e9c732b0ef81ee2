// Package health serves liveness and readiness probes.
//
// /api/health answers as long as the process is up.  /readyz also pings
// the control-plane database.  Cache state is reported but never fails the
// probe.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger is satisfied by *sqlx.DB; wrap anything else in PingFunc.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain func to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// probeTimeout bounds each dependency check.
const probeTimeout = time.Second

// Live always answers 200.
func Live(w http.ResponseWriter, _ *http.Request) {
	write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings db (required) and cache (informational).  cache may be nil.
func Ready(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := map[string]string{"status": "ok", "database": "ok", "cache": "disabled"}
		status := http.StatusOK

		if err := ping(r.Context(), db); err != nil {
			out["status"], out["database"] = "unavailable", err.Error()
			status = http.StatusServiceUnavailable
		}
		if cache != nil {
			out["cache"] = "ok"
			if err := ping(r.Context(), cache); err != nil {
				out["cache"] = err.Error()
			}
		}
		write(w, status, out)
	}
}

func ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return p.PingContext(ctx)
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
