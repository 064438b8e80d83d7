// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// EventPurger deletes audit events older than a cutoff.
type EventPurger interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// NotificationSweeper re-enqueues failed notifications whose retry time
// has come.
type NotificationSweeper interface {
	Requeue(ctx context.Context) error
}

// NewEventPurgeJob returns a job that trims the audit event table down
// to the retention window.
func NewEventPurgeJob(purger EventPurger, retention time.Duration, logger *slog.Logger) JobFunc {
	return func(ctx context.Context) error {
		purged, err := purger.DeleteOldEvents(ctx, retention)
		if err != nil {
			return err
		}
		if purged > 0 {
			logger.Info("purged old events", "count", purged, "retention", retention)
		}
		return nil
	}
}

// NewNotificationSweepJob returns a job that hands due retries back to
// the notification dispatcher.
func NewNotificationSweepJob(sweeper NotificationSweeper) JobFunc {
	return func(ctx context.Context) error {
		return sweeper.Requeue(ctx)
	}
}
