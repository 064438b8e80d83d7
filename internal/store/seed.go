// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/vitrinecms/vitrine/internal/auth"
	"github.com/vitrinecms/vitrine/internal/model"
)

// Seed creates the initial admin account when the user table is empty.
// The generated password is logged once so the operator can perform the
// first login and change it.
func Seed(ctx context.Context, queries *Queries, logger *slog.Logger) error {
	count, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password, err := generatePassword()
	if err != nil {
		return fmt.Errorf("generate admin password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     "admin",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	logger.Info("seeded initial admin account",
		"username", user.Username,
		"password", password)
	return nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
