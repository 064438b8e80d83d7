// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Notification delivery states.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationDead    = "dead"
)

// Notification is a queued outbound email.
type Notification struct {
	ID           int64        `json:"id"`
	MessageID    string       `json:"message_id"`
	Recipient    string       `json:"recipient"`
	Subject      string       `json:"subject"`
	Body         string       `json:"body"`
	Status       string       `json:"status"`
	Attempts     int64        `json:"attempts"`
	ErrorMessage string       `json:"error_message,omitempty"`
	NextRetryAt  sql.NullTime `json:"next_retry_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	SentAt       sql.NullTime `json:"sent_at,omitempty"`
}
