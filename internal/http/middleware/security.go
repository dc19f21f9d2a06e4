// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// SecurityHeaders attaches the browser hardening headers the gallery's pages
// need: a Content-Security-Policy, frame and sniffing protection, feature
// policies, HSTS on HTTPS, and no-store on the pages that carry sign-in
// state.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures SecurityHeaders.
type SecurityOptions struct {
	// EnableHSTS emits Strict-Transport-Security on HTTPS requests only.
	// Enable it only when traffic is HTTPS end-to-end.
	EnableHSTS bool
	HSTSMaxAge time.Duration // <= 0 means 180 days

	// NoStorePaths lists path prefixes whose responses must never be cached
	// (sign-in redirects, the admin page).
	NoStorePaths []string

	// EnablePolicy adds Permissions-Policy and X-Permitted-Cross-Domain-Policies.
	EnablePolicy bool

	// ContentSecurityPolicy is sent verbatim when non-empty.
	ContentSecurityPolicy string
}

// DefaultCSP allows same-origin scripts and styles, images from any HTTPS
// origin (artist avatars, remote artwork) and form posts to GitHub sign-in.
const DefaultCSP = "default-src 'self'; img-src 'self' https: data:; style-src 'self'; script-src 'self'; form-action 'self' https://github.com; frame-ancestors 'none'; base-uri 'self'"

// SecurityHeaders returns a middleware that sets, on every response:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: strict-origin-when-cross-origin
//
// and, depending on opt, Content-Security-Policy, Permissions-Policy,
// Strict-Transport-Security and Cache-Control: no-store. When the response
// already carries X-Request-ID it is added to Access-Control-Expose-Headers.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := opt.HSTSMaxAge
	if maxAge <= 0 {
		maxAge = 180 * 24 * time.Hour
	}
	hsts := "max-age=" + strconv.Itoa(int(maxAge.Seconds())) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if opt.ContentSecurityPolicy != "" {
			h.Set("Content-Security-Policy", opt.ContentSecurityPolicy)
		}
		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}
		if hasPrefix(c.Request.URL.Path, opt.NoStorePaths) {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
		}
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get("X-Request-ID") != "" {
			const hdr = "Access-Control-Expose-Headers"
			switch cur := h.Get(hdr); {
			case cur == "":
				h.Set(hdr, "X-Request-ID")
			case !strings.Contains(cur, "X-Request-ID"):
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// isHTTPS reports whether the request arrived over TLS directly or through
// a proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
