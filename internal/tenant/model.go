// internal/tenant/model.go
//
// `tenant` table row model.
//
// Context
// -------
// The `Record` struct mirrors one row in the control-plane **tenant**
// table.  The database is the system of record; the cache only ever holds a
// trimmed copy for a bounded time, and a mutation always goes through the
// database followed by explicit invalidation.
//
// Schema reference
//
//	CREATE TABLE tenant (
//	    id                  CHAR(36)     PRIMARY KEY,
//	    subdomain           VARCHAR(50)  NOT NULL UNIQUE,
//	    custom_domain       VARCHAR(253) NULL UNIQUE,
//	    domain_verified_at  TIMESTAMP    NULL,
//	    settings            JSON         NULL,
//	    status              VARCHAR(16)  NOT NULL DEFAULT 'pending',
//	    tier                VARCHAR(32)  NOT NULL DEFAULT 'free',
//	    created_at          TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at          TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);
//
// Notes
// -----
//   - Nullable columns are pointers; callers must nil-check before use.
//   - `settings` is opaque to the routing core and passed through as-is.
package tenant

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a tenant.  Only active tenants resolve.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusPending   Status = "pending"
	StatusInactive  Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusPending, StatusInactive:
		return true
	}
	return false
}

// Settings is the tenant's opaque key/value blob, stored as a JSON column.
type Settings map[string]any

// Scan implements sql.Scanner.  NULL yields a nil map.
func (s *Settings) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("tenant: cannot scan %T into Settings", src)
	}
	if len(b) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(b, (*map[string]any)(s))
}

// Value implements driver.Valuer.
func (s Settings) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(map[string]any(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Record mirrors one row in the `tenant` table.
type Record struct {
	ID               string     `db:"id"`
	Subdomain        string     `db:"subdomain"`
	CustomDomain     *string    `db:"custom_domain"`
	DomainVerifiedAt *time.Time `db:"domain_verified_at"`
	Settings         Settings   `db:"settings"`
	Status           Status     `db:"status"`
	Tier             string     `db:"tier"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

// Identifiers lists every lookup key that reaches r.
func (r *Record) Identifiers() Identifiers {
	return Identifiers{Subdomain: r.Subdomain, CustomDomain: r.CustomDomain}
}

// Identifiers holds the two host identifiers a tenant may be reachable by.
type Identifiers struct {
	Subdomain    string  `db:"subdomain"`
	CustomDomain *string `db:"custom_domain"`
}

// List returns the non-empty identifiers.
func (i Identifiers) List() []string {
	out := make([]string, 0, 2)
	if i.Subdomain != "" {
		out = append(out, i.Subdomain)
	}
	if i.CustomDomain != nil && *i.CustomDomain != "" {
		out = append(out, *i.CustomDomain)
	}
	return out
}
