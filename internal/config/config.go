// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"VITRINE_DB_PATH" envDefault:"./data/vitrine.db"`
	SessionSecret string `env:"VITRINE_SESSION_SECRET,required"`
	ServerHost    string `env:"VITRINE_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"VITRINE_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"VITRINE_ENV" envDefault:"development"`
	LogLevel      string `env:"VITRINE_LOG_LEVEL" envDefault:"info"`

	// BCP 47 tag of the catalog's second language. Item records carry an
	// English and a localized variant of every text field.
	LocalizedLang string `env:"VITRINE_LOCALIZED_LANG" envDefault:"de"`

	// Market/space data collaborators
	AlphaVantageKey string        `env:"VITRINE_ALPHAVANTAGE_KEY"`
	MarketSymbol    string        `env:"VITRINE_MARKET_SYMBOL" envDefault:"IBM"`
	NASAKey         string        `env:"VITRINE_NASA_KEY" envDefault:"DEMO_KEY"`
	UpstreamTimeout time.Duration `env:"VITRINE_UPSTREAM_TIMEOUT" envDefault:"10s"`

	// Cache configuration for upstream responses
	RedisURL     string `env:"VITRINE_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"VITRINE_CACHE_PREFIX" envDefault:"vitrine:"` // Redis key prefix
	CacheTTL     int    `env:"VITRINE_CACHE_TTL" envDefault:"900"`        // Upstream response cache TTL in seconds
	CacheMaxSize int    `env:"VITRINE_CACHE_MAX_SIZE" envDefault:"1000"`  // Max memory cache entries

	// Notification (SMTP) configuration
	SMTPHost   string `env:"VITRINE_SMTP_HOST"`
	SMTPPort   int    `env:"VITRINE_SMTP_PORT" envDefault:"587"`
	SMTPUser   string `env:"VITRINE_SMTP_USER"`
	SMTPPass   string `env:"VITRINE_SMTP_PASS"`
	NotifyFrom string `env:"VITRINE_NOTIFY_FROM"`
	NotifyTo   string `env:"VITRINE_NOTIFY_TO"` // Operator address receiving auth notifications

	// Event log retention
	EventRetentionDays int `env:"VITRINE_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Seeding configuration
	DoSeed bool `env:"VITRINE_DO_SEED" envDefault:"false"` // Enable database seeding
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// SMTPEnabled returns true if an SMTP relay is configured.
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.NotifyFrom != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("VITRINE_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("VITRINE_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("VITRINE_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
