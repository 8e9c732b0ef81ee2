package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	up   = PingFunc(func(context.Context) error { return nil })
	down = PingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func TestLive(t *testing.T) {
	rec := httptest.NewRecorder()
	Live(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	tests := []struct {
		name     string
		db, c    Pinger
		wantCode int
		wantBody string
	}{
		{"all up", up, up, 200, `{"status":"ok","database":"ok","cache":"ok"}`},
		{"no cache", up, nil, 200, `{"status":"ok","database":"ok","cache":"disabled"}`},
		{"cache down", up, down, 200, `{"status":"ok","database":"ok","cache":"connection refused"}`},
		{"db down", down, up, 503, `{"status":"unavailable","database":"connection refused","cache":"ok"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Ready(tc.db, tc.c).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.JSONEq(t, tc.wantBody, rec.Body.String())
		})
	}
}
