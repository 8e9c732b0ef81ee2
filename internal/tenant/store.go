// internal/tenant/store.go
//
// Tenant-table query helpers.
//
// Context
// -------
// Store is the system-of-record collaborator behind the cache.  Reads:
//
//   - `FindByIdentifier` - cache-miss fallback on the request path.
//   - `ListActive`       - cache warming.
//   - `Identifiers`      - invalidation by tenant id.
//
// Writes are limited to the routing-relevant columns and are only called
// through Mutator, which invalidates the cache after each one.
//
// Workflow
// --------
//  1. Callers supply a *sqlx.DB connected to the control-plane database.
//  2. Each helper executes exactly one parameterised statement under the
//     caller's context, so request deadlines bound the query.
//  3. `sql.ErrNoRows` becomes ErrNotFound; MySQL duplicate-key errors
//     become ErrConflict; everything else is wrapped and returned.
//
// Notes
// -----
//   - Column list matches the fields in `Record`; update both together.
//   - The active filter lives in SQL so suspended, pending, and inactive
//     tenants never reach the cache through the fast path.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Source is the read contract the cache, warmer, and invalidator need.
type Source interface {
	FindByIdentifier(ctx context.Context, identifier string) (*Record, error)
	ListActive(ctx context.Context) ([]Record, error)
	Identifiers(ctx context.Context, id string) (Identifiers, error)
}

// Writer adds the routing-relevant updates used by Mutator.
type Writer interface {
	Source
	UpdateSubdomain(ctx context.Context, id, subdomain string) error
	UpdateCustomDomain(ctx context.Context, id string, domain *string) error
	MarkDomainVerified(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	UpdateTier(ctx context.Context, id, tier string) error
}

const columns = `id, subdomain, custom_domain, domain_verified_at, settings,
               status, tier, created_at, updated_at`

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// Store implements Writer on MySQL.
type Store struct {
	db *sqlx.DB
}

// NewStore wraps a control-plane pool.
func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// FindByIdentifier returns the active tenant whose subdomain or custom
// domain equals identifier.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) (*Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   tenant
        WHERE  (subdomain = ? OR custom_domain = ?)
          AND  status = 'active'
        LIMIT  1`
	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, identifier, identifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find tenant %q: %w", identifier, err)
	}
	return &rec, nil
}

// ListActive returns every active tenant.  Intended for warming and batch
// jobs, not the request path.
func (s *Store) ListActive(ctx context.Context) ([]Record, error) {
	const q = `
        SELECT ` + columns + `
        FROM   tenant
        WHERE  status = 'active'`
	var rows []Record
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}
	return rows, nil
}

// Identifiers loads the current subdomain and custom domain of a tenant in
// any status.
func (s *Store) Identifiers(ctx context.Context, id string) (Identifiers, error) {
	const q = `
        SELECT subdomain, custom_domain
        FROM   tenant
        WHERE  id = ?
        LIMIT  1`
	var ids Identifiers
	if err := s.db.GetContext(ctx, &ids, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Identifiers{}, ErrNotFound
		}
		return Identifiers{}, fmt.Errorf("tenant identifiers %q: %w", id, err)
	}
	return ids, nil
}

func (s *Store) UpdateSubdomain(ctx context.Context, id, subdomain string) error {
	return s.exec(ctx, "update subdomain",
		`UPDATE tenant SET subdomain = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		subdomain, id)
}

// UpdateCustomDomain sets or clears (nil) the custom domain and resets its
// verification.
func (s *Store) UpdateCustomDomain(ctx context.Context, id string, domain *string) error {
	return s.exec(ctx, "update custom domain",
		`UPDATE tenant SET custom_domain = ?, domain_verified_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		domain, id)
}

func (s *Store) MarkDomainVerified(ctx context.Context, id string) error {
	return s.exec(ctx, "verify custom domain",
		`UPDATE tenant SET domain_verified_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND custom_domain IS NOT NULL`,
		id)
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	return s.exec(ctx, "update status",
		`UPDATE tenant SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		string(status), id)
}

func (s *Store) UpdateTier(ctx context.Context, id, tier string) error {
	return s.exec(ctx, "update tier",
		`UPDATE tenant SET tier = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		tier, id)
}

func (s *Store) exec(ctx context.Context, op, q string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrConflict
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
