package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/yanizio/storehub/internal/tenant"
)

// maxBody caps admin request bodies.
const maxBody = 64 << 10

// problem is an RFC 7807 error body.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{
		Type:   "about:blank",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// writeError maps tenant sentinels to status codes.  Unknown errors are
// 500 with a generic detail; the caller logs the real one.
func writeError(w http.ResponseWriter, err error) int {
	status := http.StatusInternalServerError
	detail := "internal error"
	switch {
	case errors.Is(err, tenant.ErrNotFound):
		status, detail = http.StatusNotFound, err.Error()
	case errors.Is(err, tenant.ErrConflict):
		status, detail = http.StatusConflict, err.Error()
	case errors.Is(err, tenant.ErrInvalid):
		status, detail = http.StatusUnprocessableEntity, err.Error()
	}
	writeProblem(w, status, detail)
	return status
}

// readJSON strictly decodes one JSON object from the body.
func readJSON(w http.ResponseWriter, r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if dec.More() {
		return errors.New("request body must hold a single JSON object")
	}
	return nil
}
