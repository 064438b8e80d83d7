// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"testing"
)

const testSecret = "Abc123!xyzABC456?defDEF789ghiGHI" // 32 bytes, 4 char classes

func TestLoad(t *testing.T) {
	t.Setenv("VITRINE_SESSION_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d; want 8080", cfg.ServerPort)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q; want development", cfg.Env)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment should be true by default")
	}
	if cfg.MarketSymbol != "IBM" {
		t.Errorf("MarketSymbol = %q; want IBM", cfg.MarketSymbol)
	}
	if got := cfg.ServerAddr(); got != "localhost:8080" {
		t.Errorf("ServerAddr = %q; want localhost:8080", got)
	}
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("VITRINE_SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Load should fail without a session secret")
	}
}

func TestLoadShortSecret(t *testing.T) {
	t.Setenv("VITRINE_SESSION_SECRET", "too-short")

	if _, err := Load(); err == nil {
		t.Error("Load should reject a short session secret")
	}
}

func TestLoadWeakSecret(t *testing.T) {
	t.Setenv("VITRINE_SESSION_SECRET", "change-me-to-32-byte-secret-key!")

	if _, err := Load(); err == nil {
		t.Error("Load should reject a known default secret")
	}
}

func TestUseRedisCache(t *testing.T) {
	cfg := Config{}
	if cfg.UseRedisCache() {
		t.Error("UseRedisCache should be false without a URL")
	}
	cfg.RedisURL = "redis://localhost:6379/0"
	if !cfg.UseRedisCache() {
		t.Error("UseRedisCache should be true with a URL")
	}
}

func TestSMTPEnabled(t *testing.T) {
	cfg := Config{}
	if cfg.SMTPEnabled() {
		t.Error("SMTPEnabled should be false without host and sender")
	}
	cfg.SMTPHost = "smtp.example.com"
	cfg.NotifyFrom = "noreply@example.com"
	if !cfg.SMTPEnabled() {
		t.Error("SMTPEnabled should be true with host and sender")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		secret string
		want   bool
	}{
		{"abcdefgh", false},
		{"abcDEF123", true},
		{"abcDEF!?", true},
		{"12345678", false},
	}

	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.secret); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v; want %v", tt.secret, got, tt.want)
		}
	}
}
