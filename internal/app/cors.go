package app

import (
	"net/url"
	"strings"
)

// originAllowed reports whether a browser origin matches any configured
// pattern. Patterns compare against the origin's host[:port]: an exact value,
// a `*.example.com` subdomain wildcard, or a `localhost:*` port wildcard.
func originAllowed(patterns []string, origin string) bool {
	host := origin
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		host = u.Host
	}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		switch {
		case pattern == "":
		case pattern == host:
			return true
		case strings.HasPrefix(pattern, "*.") &&
			strings.HasSuffix(host, pattern[1:]):
			return true
		case strings.HasSuffix(pattern, ":*") &&
			strings.HasPrefix(host, pattern[:len(pattern)-1]):
			return true
		}
	}
	return false
}
