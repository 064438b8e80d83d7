// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the application
// including User, Item, Event, and session structures.
package model

import (
	"database/sql"
	"time"
)

// User roles.
const (
	RoleAdmin   = "admin"
	RoleRegular = "regular"
)

// ValidRoles lists all roles a user record may carry.
var ValidRoles = []string{RoleAdmin, RoleRegular}

// IsValidRole reports whether role is a known user role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents a registered account.
type User struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	PasswordHash string         `json:"-"` // Never expose in JSON
	FirstName    sql.NullString `json:"first_name,omitempty"`
	LastName     sql.NullString `json:"last_name,omitempty"`
	Age          sql.NullInt64  `json:"age,omitempty"`
	Country      sql.NullString `json:"country,omitempty"`
	Gender       sql.NullString `json:"gender,omitempty"`
	Role         string         `json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
}

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
