// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store provides the SQLite persistence layer: connection setup,
// embedded migrations and typed query methods for users, items, events
// and queued notifications.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Sentinel errors returned by query methods.
var (
	// ErrNotFound indicates the operation target does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUsername indicates a username uniqueness violation.
	// Uniqueness is enforced by the database constraint, not checked-then-inserted,
	// so concurrent registrations cannot race past it.
	ErrDuplicateUsername = errors.New("username already taken")
)

// DBTX is the subset of database/sql methods the query layer needs.
// Satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries exposes typed database operations.
type Queries struct {
	db DBTX
}

// New creates a Queries instance bound to the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// nullInt64 maps zero to SQL NULL.
func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure
// on the named column. Matched on the error text so it works with both the
// modernc and mattn drivers.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
