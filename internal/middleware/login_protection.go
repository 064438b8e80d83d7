// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// LoginProtectionConfig tunes the two brute-force defenses on the
// login route: a per-IP rate limit and a per-username lockout.
type LoginProtectionConfig struct {
	// IPRateLimit is login POSTs per second per IP.
	IPRateLimit float64
	// IPBurst is the burst allowance per IP.
	IPBurst int
	// MaxFailedAttempts locks the account when reached inside the window.
	MaxFailedAttempts int
	// LockoutDuration is the first lockout; it doubles on each repeat,
	// capped at 24 hours.
	LockoutDuration time.Duration
	// AttemptWindow is how long failures count against an account.
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns the production defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// LoginProtection tracks failed logins per username and rate limits
// login POSTs per IP. Lockouts key on the username, so an attacker
// rotating IPs still hits the same counter.
type LoginProtection struct {
	ipLimiters *limiterCache[string]

	mu       sync.RWMutex
	failures map[string]*accountFailures

	maxFailedAttempts int
	lockoutDuration   time.Duration
	attemptWindow     time.Duration
}

type accountFailures struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// NewLoginProtection creates a protection instance. Zero config fields
// fall back to the defaults.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	def := DefaultLoginProtectionConfig()
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = def.IPRateLimit
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = def.IPBurst
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = def.AttemptWindow
	}

	lp := &LoginProtection{
		ipLimiters:        newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		failures:          make(map[string]*accountFailures),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
	}
	go lp.expireLoop()
	return lp
}

// CheckIPRateLimit reports whether a login POST from this IP may
// proceed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	return lp.ipLimiters.get(ip).Allow()
}

// IsAccountLocked reports whether the account is locked and for how
// much longer.
func (lp *LoginProtection) IsAccountLocked(username string) (bool, time.Duration) {
	lp.mu.RLock()
	f, ok := lp.failures[username]
	lp.mu.RUnlock()

	if ok && time.Now().Before(f.lockedUntil) {
		return true, time.Until(f.lockedUntil)
	}
	return false, 0
}

// RecordFailedAttempt counts a failed login. When the count reaches the
// limit inside the window, the account locks and the lock duration is
// returned; repeat lockouts double it up to 24 hours.
func (lp *LoginProtection) RecordFailedAttempt(username string) (bool, time.Duration) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	f, ok := lp.failures[username]
	if !ok || now.Sub(f.windowStart) > lp.attemptWindow {
		// A fresh window keeps the lockout history so repeat
		// offenders still see the doubled durations.
		lockouts := 0
		if ok {
			lockouts = f.lockouts
		}
		lp.failures[username] = &accountFailures{count: 1, windowStart: now, lockouts: lockouts}
		return false, 0
	}

	f.count++
	if f.count < lp.maxFailedAttempts {
		return false, 0
	}

	d := lp.lockoutDuration
	for i := 0; i < f.lockouts && d < 24*time.Hour; i++ {
		d *= 2
	}
	if d > 24*time.Hour {
		d = 24 * time.Hour
	}
	f.lockedUntil = now.Add(d)
	f.lockouts++
	f.count = 0

	slog.Warn("account locked after failed logins",
		"username", username,
		"lockouts", f.lockouts,
		"duration", d,
	)
	return true, d
}

// RecordSuccessfulLogin drops the failure state for the account.
func (lp *LoginProtection) RecordSuccessfulLogin(username string) {
	lp.mu.Lock()
	delete(lp.failures, username)
	lp.mu.Unlock()
}

// Middleware rate limits login POSTs per client IP. Form GETs pass
// through untouched.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			ip := GetClientIP(r)
			if !lp.CheckIPRateLimit(ip) {
				slog.Warn("login rate limit exceeded", "ip", ip)
				http.Error(w, "Too many login attempts. Please wait and try again.", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (lp *LoginProtection) expireLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if lp.ipLimiters.clearIfExceeds(10000) {
			slog.Info("cleared login IP limiters due to size")
		}

		now := time.Now()
		lp.mu.Lock()
		for username, f := range lp.failures {
			if now.After(f.lockedUntil) && now.Sub(f.windowStart) > lp.attemptWindow {
				delete(lp.failures, username)
			}
		}
		lp.mu.Unlock()
	}
}
