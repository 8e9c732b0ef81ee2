// internal/tenant/mutate.go
//
// Routing-relevant tenant mutations.
//
// Context
// -------
// Domain management and admin tooling change a tenant's subdomain, custom
// domain, verification, status, or tier through Mutator.  Each call:
//
//  1. Validates input (go-playground/validator, custom `subdomain` and
//     `offroot` tags).
//  2. Reads the identifiers the tenant is reachable by *before* the write.
//  3. Performs the write.
//  4. Invalidates the old identifiers and any new one, awaited, before
//     returning.
//
// Step 2 matters: after a domain change the old key would otherwise keep
// routing to the tenant until its TTL.
//
// Notes
// -----
//   - Invalidation is logged, never returned; the write already succeeded.
//   - Validation failures wrap ErrInvalid.
package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/storehub/internal/hostname"
)

// Mutator applies writes and keeps the cache honest.
type Mutator struct {
	store    Writer
	inv      *Invalidator
	validate *validator.Validate
	log      *zap.Logger
}

// NewMutator wires a Mutator.  The classifier supplies the reserved label
// set and root domain used by input validation.
func NewMutator(store Writer, inv *Invalidator, cl *hostname.Classifier, log *zap.Logger) *Mutator {
	v := validator.New()
	_ = v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
		return cl.ValidSubdomain(fl.Field().String())
	})
	_ = v.RegisterValidation("offroot", func(fl validator.FieldLevel) bool {
		d := strings.ToLower(fl.Field().String())
		root := cl.Root()
		return root == "" || (d != root && !strings.HasSuffix(d, "."+root))
	})
	return &Mutator{store: store, inv: inv, validate: v, log: log.Named("tenant.mutate")}
}

type subdomainInput struct {
	Subdomain string `validate:"required,subdomain"`
}

type domainInput struct {
	Domain string `validate:"required,max=253,fqdn,offroot"`
}

type statusInput struct {
	Status Status `validate:"required,oneof=active suspended pending inactive"`
}

type tierInput struct {
	Tier string `validate:"required,max=32,printascii"`
}

// SetSubdomain changes the tenant's subdomain.
func (m *Mutator) SetSubdomain(ctx context.Context, id, subdomain string) error {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if err := m.check(subdomainInput{Subdomain: subdomain}); err != nil {
		return err
	}
	return m.apply(ctx, id, "subdomain", func(ctx context.Context) error {
		return m.store.UpdateSubdomain(ctx, id, subdomain)
	}, withAdded(subdomain))
}

// SetCustomDomain attaches a custom domain.  An empty domain removes it.
func (m *Mutator) SetCustomDomain(ctx context.Context, id, domain string) error {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return m.apply(ctx, id, "custom_domain", func(ctx context.Context) error {
			return m.store.UpdateCustomDomain(ctx, id, nil)
		})
	}
	if err := m.check(domainInput{Domain: domain}); err != nil {
		return err
	}
	return m.apply(ctx, id, "custom_domain", func(ctx context.Context) error {
		return m.store.UpdateCustomDomain(ctx, id, &domain)
	}, withAdded(domain))
}

// VerifyCustomDomain records a successful ownership check.
func (m *Mutator) VerifyCustomDomain(ctx context.Context, id string) error {
	return m.apply(ctx, id, "domain_verified", func(ctx context.Context) error {
		return m.store.MarkDomainVerified(ctx, id)
	}, requireCustomDomain)
}

// SetStatus changes the lifecycle status.  Non-active tenants stop
// resolving as soon as this returns.
func (m *Mutator) SetStatus(ctx context.Context, id string, status Status) error {
	if err := m.check(statusInput{Status: status}); err != nil {
		return err
	}
	return m.apply(ctx, id, "status", func(ctx context.Context) error {
		return m.store.UpdateStatus(ctx, id, status)
	})
}

// SetTier changes the subscription tier.
func (m *Mutator) SetTier(ctx context.Context, id, tier string) error {
	tier = strings.TrimSpace(tier)
	if err := m.check(tierInput{Tier: tier}); err != nil {
		return err
	}
	return m.apply(ctx, id, "tier", func(ctx context.Context) error {
		return m.store.UpdateTier(ctx, id, tier)
	})
}

// applyOpt adjusts one apply call.
type applyOpt func(*applyCfg)

type applyCfg struct {
	added    []string
	precheck func(Identifiers) error
}

// withAdded names identifiers the write introduces, so a negative or stale
// entry under the new name is evicted too.
func withAdded(ids ...string) applyOpt {
	return func(c *applyCfg) { c.added = append(c.added, ids...) }
}

func requireCustomDomain(c *applyCfg) {
	c.precheck = func(ids Identifiers) error {
		if ids.CustomDomain == nil || *ids.CustomDomain == "" {
			return fmt.Errorf("%w: tenant has no custom domain", ErrInvalid)
		}
		return nil
	}
}

func (m *Mutator) apply(ctx context.Context, id, field string, write func(context.Context) error, opts ...applyOpt) error {
	var cfg applyCfg
	for _, o := range opts {
		o(&cfg)
	}

	before, err := m.store.Identifiers(ctx, id)
	if err != nil {
		return err
	}
	if cfg.precheck != nil {
		if err := cfg.precheck(before); err != nil {
			return err
		}
	}
	if err := write(ctx); err != nil {
		return err
	}

	n := m.inv.InvalidateIdentifiers(ctx, append(before.List(), cfg.added...)...)
	m.log.Info("tenant updated",
		zap.String("tenant_id", id),
		zap.String("field", field),
		zap.Int("cache_keys_deleted", n))
	return nil
}

func (m *Mutator) check(in any) error {
	err := m.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Errorf("%w: %s failed %q", ErrInvalid, strings.ToLower(fe.Field()), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
