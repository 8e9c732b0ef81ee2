// internal/tenant/codec.go
//
// Cache entry shape.
//
// A cached tenant is a flat JSON object carrying an explicit schema
// version.  Entries written by a different version, or that fail to decode
// strictly, are rejected; the cache evicts them and reloads from the
// database.  Timestamps are never cached.
package tenant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// KeyPrefix namespaces every tenant entry in the shared cache.
const KeyPrefix = "tenant:"

// schemaVersion must be bumped whenever cachedTenant changes shape.
const schemaVersion = 1

var errSchema = errors.New("cached tenant schema mismatch")

type cachedTenant struct {
	V            int      `json:"v"`
	ID           string   `json:"id"`
	Subdomain    string   `json:"subdomain"`
	CustomDomain *string  `json:"custom_domain,omitempty"`
	Settings     Settings `json:"settings,omitempty"`
	Status       Status   `json:"status"`
	Tier         string   `json:"tier,omitempty"`
}

// Key returns the cache key for a lookup identifier.
func Key(identifier string) string {
	return KeyPrefix + strings.ToLower(identifier)
}

func encode(r *Record) ([]byte, error) {
	return json.Marshal(cachedTenant{
		V:            schemaVersion,
		ID:           r.ID,
		Subdomain:    r.Subdomain,
		CustomDomain: r.CustomDomain,
		Settings:     r.Settings,
		Status:       r.Status,
		Tier:         r.Tier,
	})
}

func decode(b []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	var c cachedTenant
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", errSchema, err)
	}
	if c.V != schemaVersion {
		return nil, fmt.Errorf("%w: version %d", errSchema, c.V)
	}
	if c.ID == "" || c.Subdomain == "" || !c.Status.Valid() {
		return nil, fmt.Errorf("%w: missing fields", errSchema)
	}
	return &Record{
		ID:           c.ID,
		Subdomain:    c.Subdomain,
		CustomDomain: c.CustomDomain,
		Settings:     c.Settings,
		Status:       c.Status,
		Tier:         c.Tier,
	}, nil
}
