// Package access decides whether a request needs authentication and, when it
// does, which credential strategy resolves the caller's identity.
package access

import (
	"net/http"
	"strings"

	"github.com/gobwas/glob"
)

// RequiresAuth reports whether path is subject to authentication. A nil or
// empty exclusion list protects everything. Both path and every exclusion
// are normalized to a trailing-slash form before matching; exclusions may
// carry a * wildcard that matches any run of characters, slashes included.
// The first matching exclusion wins.
func RequiresAuth(path string, excluded []string) bool {
	if path == "" || len(excluded) == 0 {
		return true
	}

	normalized := normalize(path)
	for _, pattern := range excluded {
		if pattern == "" {
			continue
		}
		matcher, err := glob.Compile(normalize(pattern))
		if err != nil {
			continue
		}
		if matcher.Match(normalized) {
			return false
		}
	}
	return true
}

// AuthorizationHeader returns the raw Authorization header value, empty when
// the request carries none. Scheme parsing happens in DecodeBasic.
func AuthorizationHeader(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.Header.Get("Authorization")
}

// SessionCookie returns the value of the configured session cookie, empty
// when the request carries none.
func SessionCookie(r *http.Request, cookieName string) string {
	if r == nil || cookieName == "" {
		return ""
	}
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func normalize(p string) string {
	if !strings.HasSuffix(p, "/") {
		return p + "/"
	}
	return p
}
