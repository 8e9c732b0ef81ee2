// internal/hostname/paths.go
//
// Path and host helpers consulted by the routing middleware before any
// tenant lookup happens.
package hostname

import (
	"path"
	"regexp"
	"strings"
)

// bypassPrefixes never go through tenant resolution, whatever the host.
// Entries without a trailing slash match the exact path or a sub-path.
var bypassPrefixes = []string{
	"/api/health",
	"/healthz",
	"/readyz",
	"/api/auth/",
	"/_next/",
	"/static/",
	"/assets/",
	"/metrics",
	"/favicon.ico",
	"/robots.txt",
}

var staticExt = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {},
	".ico": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {},
	".webp": {}, ".avif": {}, ".woff": {}, ".woff2": {}, ".ttf": {},
	".eot": {}, ".otf": {}, ".mp4": {}, ".webm": {}, ".pdf": {},
}

// ShouldBypassRouting reports whether p is a health check, an auth
// callback, a framework asset, or a static file.
func ShouldBypassRouting(p string) bool {
	for _, prefix := range bypassPrefixes {
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(p, prefix) {
				return true
			}
			continue
		}
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	_, ok := staticExt[strings.ToLower(path.Ext(p))]
	return ok
}

// NormalizeWWW returns the apex form of a www-prefixed host, port included.
// ok is false when no redirect is needed.
func NormalizeWWW(host string) (apex string, ok bool) {
	if len(host) <= 4 || !strings.EqualFold(host[:4], "www.") {
		return "", false
	}
	return host[4:], true
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSubdomain checks the tenant subdomain rule: lowercase letters,
// digits, and hyphens, 3 to 50 characters, and not a reserved label.
func (c *Classifier) ValidSubdomain(label string) bool {
	if len(label) < 3 || len(label) > 50 {
		return false
	}
	if !subdomainPattern.MatchString(label) {
		return false
	}
	return !c.Reserved(label)
}
