// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/store"
	"github.com/vitrinecms/vitrine/internal/testutil"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return testutil.TestMemoryDB(t)
}

func latestEvent(t *testing.T, db *sql.DB) model.Event {
	t.Helper()
	events, err := store.New(db).ListRecentEvents(context.Background(), 1)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	return events[0]
}

func TestMirrorsWarningsToEventLog(t *testing.T) {
	db := newTestDB(t)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Warn("Admin access refused", "user_id", "42")

	event := latestEvent(t, db)
	if event.Level != model.EventLevelWarning {
		t.Errorf("level = %q, want %q", event.Level, model.EventLevelWarning)
	}
	if event.Category != model.EventCategoryAuth {
		t.Errorf("category = %q, want %q", event.Category, model.EventCategoryAuth)
	}
	if event.Message != "Admin access refused" {
		t.Errorf("message = %q", event.Message)
	}
}

func TestInfoIsNotMirrored(t *testing.T) {
	db := newTestDB(t)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Info("server started")

	events, err := store.New(db).ListRecentEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestExplicitCategoryAttribute(t *testing.T) {
	db := newTestDB(t)
	inner := slog.NewTextHandler(io.Discard, nil)
	logger := slog.New(NewEventLogHandler(inner, db))

	logger.Error("delivery gave up", "category", model.EventCategoryNotify, "recipient", "a@b.c")

	event := latestEvent(t, db)
	if event.Category != model.EventCategoryNotify {
		t.Errorf("category = %q, want %q", event.Category, model.EventCategoryNotify)
	}
	if event.Level != model.EventLevelError {
		t.Errorf("level = %q, want %q", event.Level, model.EventLevelError)
	}
}

func TestEventCategoryFallbacks(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"login failed", model.EventCategoryAuth},
		{"item removed", model.EventCategoryItem},
		{"user created", model.EventCategoryUser},
		{"notification retry scheduled", model.EventCategoryNotify},
		{"disk almost full", model.EventCategorySystem},
	}
	for _, tt := range tests {
		r := slog.Record{Message: tt.message}
		if got := eventCategory(r); got != tt.want {
			t.Errorf("eventCategory(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestEventMetadata(t *testing.T) {
	var r slog.Record
	r.AddAttrs(slog.String("category", "auth"), slog.String("path", "/admin"))
	got := eventMetadata(r)
	if got != `{"path":"/admin"}` {
		t.Errorf("metadata = %q", got)
	}

	var empty slog.Record
	if got := eventMetadata(empty); got != "{}" {
		t.Errorf("metadata for empty record = %q", got)
	}
}
