// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
)

// SecurityHeadersConfig controls the hardening headers set on every
// response.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS, which would poison plain-http
	// local setups.
	IsDevelopment bool

	// ContentSecurityPolicy is sent verbatim when non-empty.
	ContentSecurityPolicy string

	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds
	// (0 disables the header).
	HSTSMaxAge int

	// FrameOptions is the X-Frame-Options value, empty to omit.
	FrameOptions string

	// ReferrerPolicy is the Referrer-Policy value, empty to omit.
	ReferrerPolicy string
}

// DefaultSecurityHeadersConfig returns the policy for this
// application: everything self-contained except item pictures, which
// may live on other hosts.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	return SecurityHeadersConfig{
		IsDevelopment: isDev,
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; " +
			"connect-src 'self'; object-src 'none'; base-uri 'self'; " +
			"form-action 'self'",
		HSTSMaxAge:     31536000,
		FrameOptions:   "SAMEORIGIN",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}
}

// SecurityHeaders returns middleware applying the configured headers.
// X-Content-Type-Options is always sent; the API answers with
// client-supplied data and must not be MIME-sniffed.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	var hsts string
	if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
