// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vitrinecms/vitrine/internal/model"
)

const createUser = `
INSERT INTO users (username, password_hash, first_name, last_name, country, gender, age, role)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, username, password_hash, first_name, last_name, country, gender, age, role, created_at
`

// CreateUserParams holds the fields for CreateUser.
type CreateUserParams struct {
	Username     string
	PasswordHash string
	FirstName    sql.NullString
	LastName     sql.NullString
	Country      sql.NullString
	Gender       sql.NullString
	Age          sql.NullInt64
	Role         string
}

// CreateUser inserts a new user. Returns ErrDuplicateUsername when the
// username is already taken.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Username,
		arg.PasswordHash,
		arg.FirstName,
		arg.LastName,
		arg.Country,
		arg.Gender,
		arg.Age,
		arg.Role,
	)
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Country,
		&u.Gender,
		&u.Age,
		&u.Role,
		&u.CreatedAt,
	)
	if isUniqueViolation(err, "users.username") {
		return model.User{}, ErrDuplicateUsername
	}
	return u, err
}

const getUserByUsername = `
SELECT id, username, password_hash, first_name, last_name, country, gender, age, role, created_at
FROM users
WHERE username = ?
`

// GetUserByUsername looks a user up by exact username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Country,
		&u.Gender,
		&u.Age,
		&u.Role,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

const getUserByID = `
SELECT id, username, password_hash, first_name, last_name, country, gender, age, role, created_at
FROM users
WHERE id = ?
`

// GetUserByID looks a user up by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.Country,
		&u.Gender,
		&u.Age,
		&u.Role,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

const updateUserPasswordHash = `
UPDATE users SET password_hash = ? WHERE id = ?
`

// UpdateUserPasswordHash replaces a user's password hash. Used when the
// stored hash parameters fall behind the current policy.
func (q *Queries) UpdateUserPasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := q.db.ExecContext(ctx, updateUserPasswordHash, hash, id)
	return err
}

const countUsers = `SELECT COUNT(*) FROM users`

// CountUsers returns the total number of registered users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}
