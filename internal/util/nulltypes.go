// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util holds small helpers for mapping optional form input to
// database null types.
package util

import (
	"database/sql"
	"strconv"
)

// NullStringFromValue returns a valid NullString for non-empty input
// and the SQL NULL for an empty string.
func NullStringFromValue(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ParseNullInt64Positive parses an optional positive integer form
// field. Empty input, malformed input and values below one all map to
// the SQL NULL.
func ParseNullInt64Positive(s string) sql.NullInt64 {
	if s == "" {
		return sql.NullInt64{}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
