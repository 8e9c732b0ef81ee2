// internal/hostname/classify.go
//
// Host header classification.
//
// Context
// -------
// Every request carries a Host header that decides how it is routed:
//
//   - localhost  - loopback and private addresses, development only.
//   - root       - the platform apex or a reserved platform subdomain.
//   - subdomain  - `<label>.<root>`, a tenant reached by its subdomain.
//   - custom     - any other host, a tenant's own domain.
//
// Classification is pure.  It never performs I/O and never panics, so the
// routing middleware can call it on untrusted input without guards.
// Malformed hosts degrade to `custom` carrying the raw string; the store
// lookup then simply finds no match.
//
// Notes
// -----
//   - Multi-label hosts under the root (`a.b.example.com`) are `custom`
//     unless their leftmost label is reserved.
package hostname

import (
	"net/netip"
	"strings"
)

// Kind tags a Classification.
type Kind string

const (
	KindRoot      Kind = "root"
	KindSubdomain Kind = "subdomain"
	KindCustom    Kind = "custom"
	KindLocalhost Kind = "localhost"
)

// Classification is computed per request and never persisted.  Identifier
// is the subdomain label for KindSubdomain, the host for KindCustom, and
// empty otherwise.
type Classification struct {
	Kind       Kind
	Identifier string
}

// IsTenant reports whether the classification names a tenant lookup key.
func (c Classification) IsTenant() bool {
	return c.Kind == KindSubdomain || c.Kind == KindCustom
}

// DefaultReserved lists platform labels that never name a tenant.
var DefaultReserved = []string{
	"www", "api", "admin", "app", "dashboard",
	"cdn", "static", "mail", "ftp", "docs",
}

var privateV4 = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// Classifier holds the root domain and reserved label set.  The zero value
// classifies every public host as custom.
type Classifier struct {
	root     string
	reserved map[string]struct{}
}

// NewClassifier normalises root and builds the reserved set.  A nil
// reserved slice selects DefaultReserved.
func NewClassifier(root string, reserved []string) *Classifier {
	if reserved == nil {
		reserved = DefaultReserved
	}
	set := make(map[string]struct{}, len(reserved))
	for _, r := range reserved {
		set[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return &Classifier{
		root:     canonical(root),
		reserved: set,
	}
}

// Root returns the normalised root domain.
func (c *Classifier) Root() string { return c.root }

// Reserved reports whether label is a reserved platform label.
func (c *Classifier) Reserved(label string) bool {
	_, ok := c.reserved[label]
	return ok
}

// Classify maps a raw Host header onto a Classification.
func (c *Classifier) Classify(raw string) Classification {
	host := canonical(StripPort(raw))

	if isLocal(host) {
		return Classification{Kind: KindLocalhost}
	}
	if host == "" {
		return Classification{Kind: KindCustom, Identifier: raw}
	}
	if c.root != "" {
		if host == c.root {
			return Classification{Kind: KindRoot}
		}
		if sub, ok := strings.CutSuffix(host, "."+c.root); ok && sub != "" {
			label, _, multi := strings.Cut(sub, ".")
			if c.Reserved(label) {
				return Classification{Kind: KindRoot}
			}
			if !multi && label != "" {
				return Classification{Kind: KindSubdomain, Identifier: label}
			}
		}
	}
	return Classification{Kind: KindCustom, Identifier: host}
}

// Classify uses DefaultReserved.  Prefer a configured Classifier in
// long-lived code.
func Classify(host, rootDomain string) Classification {
	return NewClassifier(rootDomain, nil).Classify(host)
}

// StripPort removes a trailing :port.  Bracketed IPv6 literals lose their
// brackets; bare IPv6 literals are returned unchanged.
func StripPort(h string) string {
	if strings.HasPrefix(h, "[") {
		if end := strings.IndexByte(h, ']'); end > 0 {
			return h[1:end]
		}
		return h
	}
	if strings.Count(h, ":") == 1 {
		return h[:strings.IndexByte(h, ':')]
	}
	return h
}

func canonical(h string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(h)), ".")
}

// IsLocal reports whether a raw Host header names a development host:
// localhost, a loopback address, or a private IPv4 address.
func IsLocal(raw string) bool { return isLocal(canonical(StripPort(raw))) }

func isLocal(host string) bool {
	if host == "localhost" {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() {
		return true
	}
	for _, p := range privateV4 {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
