// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vitrinecms/vitrine/internal/model"
)

const notificationColumns = `id, message_id, recipient, subject, body, status, attempts, error_message, next_retry_at, created_at, updated_at, sent_at`

func scanNotification(scan func(...any) error) (model.Notification, error) {
	var n model.Notification
	err := scan(
		&n.ID,
		&n.MessageID,
		&n.Recipient,
		&n.Subject,
		&n.Body,
		&n.Status,
		&n.Attempts,
		&n.ErrorMessage,
		&n.NextRetryAt,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.SentAt,
	)
	return n, err
}

const createNotification = `
INSERT INTO notifications (message_id, recipient, subject, body)
VALUES (?, ?, ?, ?)
RETURNING ` + notificationColumns

// CreateNotificationParams holds the fields for CreateNotification.
type CreateNotificationParams struct {
	MessageID string
	Recipient string
	Subject   string
	Body      string
}

// CreateNotification queues an outbound email in pending state.
func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (model.Notification, error) {
	row := q.db.QueryRowContext(ctx, createNotification,
		arg.MessageID,
		arg.Recipient,
		arg.Subject,
		arg.Body,
	)
	return scanNotification(row.Scan)
}

const getNotificationByID = `
SELECT ` + notificationColumns + `
FROM notifications
WHERE id = ?
`

// GetNotificationByID fetches a queued notification by primary key.
func (q *Queries) GetNotificationByID(ctx context.Context, id int64) (model.Notification, error) {
	row := q.db.QueryRowContext(ctx, getNotificationByID, id)
	n, err := scanNotification(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Notification{}, ErrNotFound
	}
	return n, err
}

const markNotificationSent = `
UPDATE notifications
SET status = 'sent', attempts = ?, error_message = '', next_retry_at = NULL, updated_at = ?, sent_at = ?
WHERE id = ?
`

// MarkNotificationSent records a successful delivery.
func (q *Queries) MarkNotificationSent(ctx context.Context, id, attempts int64) error {
	now := time.Now().UTC()
	_, err := q.db.ExecContext(ctx, markNotificationSent, attempts, now, now, id)
	return err
}

const markNotificationFailed = `
UPDATE notifications
SET status = 'failed', attempts = ?, error_message = ?, next_retry_at = ?, updated_at = ?
WHERE id = ?
`

// MarkNotificationFailed records a failed attempt and schedules the next retry.
func (q *Queries) MarkNotificationFailed(ctx context.Context, id, attempts int64, errMsg string, nextRetry time.Time) error {
	_, err := q.db.ExecContext(ctx, markNotificationFailed, attempts, errMsg, nextRetry, time.Now().UTC(), id)
	return err
}

const markNotificationDead = `
UPDATE notifications
SET status = 'dead', attempts = ?, error_message = ?, next_retry_at = NULL, updated_at = ?
WHERE id = ?
`

// MarkNotificationDead gives up on a notification after the retry budget
// is exhausted.
func (q *Queries) MarkNotificationDead(ctx context.Context, id, attempts int64, errMsg string) error {
	_, err := q.db.ExecContext(ctx, markNotificationDead, attempts, errMsg, time.Now().UTC(), id)
	return err
}

const listDueNotifications = `
SELECT ` + notificationColumns + `
FROM notifications
WHERE status = 'failed' AND next_retry_at IS NOT NULL AND next_retry_at <= ?
ORDER BY next_retry_at
LIMIT ?
`

// ListDueNotifications returns failed notifications whose retry time has
// passed, oldest due first.
func (q *Queries) ListDueNotifications(ctx context.Context, now time.Time, limit int64) ([]model.Notification, error) {
	rows, err := q.db.QueryContext(ctx, listDueNotifications, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
