// Package middlewares contains the HTTP middleware stack: panic recovery,
// request scoping, rate limiting, security headers and session auth.
package middlewares

import (
	"net"
	"net/http"
	"strings"
)

// Middleware is the standard wrapping shape, compatible with chi's Use.
type Middleware func(next http.Handler) http.Handler

// ClientIP extracts the client IP, honoring X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
