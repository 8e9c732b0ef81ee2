// internal/server/timeouts.go
//
// HTTP server helper with robust timeouts.
//
// Production hardening recommends:
//
//   • ReadTimeout   – abort slow-loris headers (10 s)
//   • WriteTimeout  – cap total response time (15 s)
//   • IdleTimeout   – close keep-alives on idle clients (60 s)
//
// The values come from config.HTTP; zero fields fall back to the defaults
// above so tests and tools can pass an empty Timeouts.

package server

import (
	"net/http"
	"time"
)

// Timeouts mirrors the config.HTTP knobs.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// New constructs an *http.Server with sensible defaults.
func New(addr string, handler http.Handler, t Timeouts) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       or(t.Read, 10*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      or(t.Write, 15*time.Second),
		IdleTimeout:       or(t.Idle, 60*time.Second),
	}
}

func or(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
