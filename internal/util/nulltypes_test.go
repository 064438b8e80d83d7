// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestNullStringFromValue(t *testing.T) {
	if got := NullStringFromValue(""); got.Valid {
		t.Errorf("empty string: got %+v, want NULL", got)
	}
	got := NullStringFromValue("Nibbler")
	if !got.Valid || got.String != "Nibbler" {
		t.Errorf("got %+v, want valid Nibbler", got)
	}
}

func TestParseNullInt64Positive(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		valid bool
		want  int64
	}{
		{name: "empty", in: "", valid: false},
		{name: "positive", in: "25", valid: true, want: 25},
		{name: "one", in: "1", valid: true, want: 1},
		{name: "zero", in: "0", valid: false},
		{name: "negative", in: "-3", valid: false},
		{name: "not a number", in: "young", valid: false},
		{name: "float", in: "2.5", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseNullInt64Positive(tt.in)
			if got.Valid != tt.valid {
				t.Fatalf("Valid = %v, want %v", got.Valid, tt.valid)
			}
			if got.Valid && got.Int64 != tt.want {
				t.Errorf("Int64 = %d, want %d", got.Int64, tt.want)
			}
		})
	}
}
