// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache stores proxied upstream responses for their TTL.
// A memory backend is always available; Redis can be enabled through
// configuration for multi-instance deployments.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var (
	// ErrMiss is returned by Get when the key is absent or expired.
	ErrMiss = errors.New("cache: miss")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("cache: closed")
)

// Cacher is the surface the upstream clients need. Implementations
// must be safe for concurrent use. A zero ttl on Set means the
// backend's default TTL.
type Cacher interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Config selects and tunes the backend.
type Config struct {
	// RedisURL enables the Redis backend when set,
	// e.g. redis://localhost:6379/0.
	RedisURL string

	// Prefix namespaces this application's keys in Redis.
	Prefix string

	// DefaultTTL applies when Set is called with a zero ttl.
	DefaultTTL time.Duration

	// MaxEntries bounds the memory backend (0 = unbounded).
	MaxEntries int
}

// New creates the configured cache. When RedisURL is set but the
// server is unreachable, the memory backend is used instead so the
// application still starts.
func New(cfg Config) Cacher {
	if cfg.RedisURL != "" {
		c, err := NewRedis(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
		if err == nil {
			slog.Info("cache backend ready", "backend", "redis", "prefix", cfg.Prefix)
			return c
		}
		slog.Warn("redis unavailable, using memory cache", "error", err)
	}
	return NewMemory(cfg.DefaultTTL, cfg.MaxEntries)
}
