// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/store"
)

// fakeSender records sent messages and can be told to fail.
type fakeSender struct {
	mu       sync.Mutex
	sent     []Message
	failWith error
}

func (f *fakeSender) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestQueries(t *testing.T) *store.Queries {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.New(db)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNotifyDeliversMessage(t *testing.T) {
	queries := newTestQueries(t)
	sender := &fakeSender{}
	d := NewDispatcher(queries, sender, testLogger(), DefaultConfig())

	ctx := context.Background()
	d.Start(ctx)
	defer d.Stop()

	d.Notify(ctx, "ops@example.com", "New registration", "bender registered")

	waitFor(t, 2*time.Second, func() bool { return sender.sentCount() == 1 })

	sender.mu.Lock()
	msg := sender.sent[0]
	sender.mu.Unlock()
	if msg.Recipient != "ops@example.com" {
		t.Errorf("recipient = %q", msg.Recipient)
	}
	if msg.ID == "" {
		t.Error("message ID should be set")
	}

	// The persisted record ends up in sent state.
	waitFor(t, 2*time.Second, func() bool {
		n, err := queries.GetNotificationByID(ctx, 1)
		return err == nil && n.Status == model.NotificationSent
	})
}

func TestNotifyFailureSchedulesRetry(t *testing.T) {
	queries := newTestQueries(t)
	sender := &fakeSender{failWith: errors.New("dial tcp: connection refused")}
	d := NewDispatcher(queries, sender, testLogger(), Config{Workers: 1})

	ctx := context.Background()
	d.Start(ctx)
	defer d.Stop()

	d.Notify(ctx, "ops@example.com", "subj", "body")

	waitFor(t, 5*time.Second, func() bool {
		n, err := queries.GetNotificationByID(ctx, 1)
		return err == nil && n.Status == model.NotificationFailed
	})

	n, err := queries.GetNotificationByID(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", n.Attempts)
	}
	if !n.NextRetryAt.Valid {
		t.Error("next_retry_at should be scheduled")
	}
	if !strings.Contains(n.ErrorMessage, "connection refused") {
		t.Errorf("error message %q should carry the cause", n.ErrorMessage)
	}
}

func TestRequeuePicksUpDueNotifications(t *testing.T) {
	queries := newTestQueries(t)
	sender := &fakeSender{}
	d := NewDispatcher(queries, sender, testLogger(), Config{Workers: 1})

	ctx := context.Background()

	// Seed a failed notification whose retry time has passed.
	n, err := queries.CreateNotification(ctx, store.CreateNotificationParams{
		MessageID: "msg-retry",
		Recipient: "ops@example.com",
		Subject:   "subj",
		Body:      "body",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	due := time.Now().UTC().Add(-time.Minute)
	if err := queries.MarkNotificationFailed(ctx, n.ID, 1, "earlier failure", due); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	d.Start(ctx)
	defer d.Stop()

	if err := d.Requeue(ctx); err != nil {
		t.Fatalf("requeue: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return sender.sentCount() == 1 })

	waitFor(t, 2*time.Second, func() bool {
		got, err := queries.GetNotificationByID(ctx, n.ID)
		return err == nil && got.Status == model.NotificationSent && got.Attempts == 2
	})
}

func TestNotifyPersistsWhenNotRunning(t *testing.T) {
	queries := newTestQueries(t)
	sender := &fakeSender{}
	d := NewDispatcher(queries, sender, testLogger(), DefaultConfig())

	ctx := context.Background()

	// Dispatcher never started, the row must still exist for later.
	d.Notify(ctx, "ops@example.com", "subj", "body")

	n, err := queries.GetNotificationByID(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n.Status != model.NotificationPending {
		t.Errorf("status = %q, want pending", n.Status)
	}
	if sender.sentCount() != 0 {
		t.Error("nothing should have been sent")
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int64
		want    time.Duration
	}{
		{0, 1 * time.Minute},
		{1, 1 * time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{4, 8 * time.Minute},
		{20, 24 * time.Hour},
	}

	for _, tt := range tests {
		if got := calculateBackoff(tt.attempt); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestFormatMessage(t *testing.T) {
	msg := Message{
		ID:        "abc-123",
		Recipient: "ops@example.com",
		Subject:   "New item",
		Body:      "A new item was added.",
	}

	raw := formatMessage("vitrine@example.com", msg)

	for _, want := range []string{
		"From: vitrine@example.com\r\n",
		"To: ops@example.com\r\n",
		"Subject: New item\r\n",
		"Message-ID: <abc-123@vitrine>\r\n",
		"\r\n\r\nA new item was added.",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}
