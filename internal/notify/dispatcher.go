// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/store"
)

// Delivery configuration constants
const (
	MaxAttempts    = 5               // Maximum number of delivery attempts
	InitialBackoff = 1 * time.Minute // Base delay before the first requeue
	MaxBackoff     = 24 * time.Hour  // Maximum delay between requeues
	SendTimeout    = 30 * time.Second
)

// Dispatcher queues notifications and delivers them with background
// workers. Failures are recorded with a retry schedule; a periodic sweep
// calls Requeue to pick them up again.
type Dispatcher struct {
	queries *store.Queries
	sender  Sender
	logger  *slog.Logger
	queue   chan model.Notification
	workers int
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// Config holds dispatcher configuration.
type Config struct {
	Workers int // Number of concurrent delivery workers
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers: 2,
	}
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(queries *store.Queries, sender Sender, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries: queries,
		sender:  sender,
		logger:  logger,
		queue:   make(chan model.Notification, 100),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting notification dispatcher", "workers", d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping notification dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

// Notify queues an email. The notification is persisted first so it
// survives a restart even when the in-memory queue is full. Errors are
// logged and swallowed; a failed notification must never fail the
// operation that triggered it.
func (d *Dispatcher) Notify(ctx context.Context, recipient, subject, body string) {
	msg := NewMessage(recipient, subject, body)

	n, err := d.queries.CreateNotification(ctx, store.CreateNotificationParams{
		MessageID: msg.ID,
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		Body:      msg.Body,
	})
	if err != nil {
		d.logger.Error("failed to queue notification",
			"error", err,
			"recipient", recipient,
			"subject", subject)
		return
	}

	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		d.logger.Warn("dispatcher not running, notification stays queued",
			"notification_id", n.ID)
		return
	}

	select {
	case d.queue <- n:
		d.logger.Debug("notification queued", "notification_id", n.ID, "message_id", n.MessageID)
	default:
		// The sweep will pick it up from the database.
		d.logger.Warn("notification queue full, deferring to retry sweep",
			"notification_id", n.ID)
		d.deferToSweep(ctx, n)
	}
}

// Requeue loads failed notifications whose retry time has passed and
// puts them back on the queue. Called by the scheduler.
func (d *Dispatcher) Requeue(ctx context.Context) error {
	due, err := d.queries.ListDueNotifications(ctx, time.Now().UTC(), 50)
	if err != nil {
		return err
	}

	for _, n := range due {
		select {
		case d.queue <- n:
			d.logger.Debug("notification requeued", "notification_id", n.ID)
		default:
			// Queue full, the next sweep will try again.
			return nil
		}
	}
	return nil
}

// worker processes queued notifications.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("notification worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			d.logger.Debug("notification worker stopping", "worker_id", id)
			return
		case <-ctx.Done():
			d.logger.Debug("notification worker context cancelled", "worker_id", id)
			return
		case n := <-d.queue:
			d.process(ctx, n)
		}
	}
}

// process attempts delivery for one notification and records the outcome.
func (d *Dispatcher) process(ctx context.Context, n model.Notification) {
	// Refresh the record, another worker or instance may have finished it.
	record, err := d.queries.GetNotificationByID(ctx, n.ID)
	if err != nil {
		d.logger.Error("failed to load notification record",
			"error", err,
			"notification_id", n.ID)
		return
	}
	if record.Status == model.NotificationSent || record.Status == model.NotificationDead {
		d.logger.Debug("notification already processed",
			"notification_id", n.ID,
			"status", record.Status)
		return
	}

	attempts := record.Attempts + 1
	sendErr := d.attempt(ctx, record)
	now := time.Now().UTC()

	if sendErr == nil {
		if err := d.queries.MarkNotificationSent(ctx, record.ID, attempts); err != nil {
			d.logger.Error("failed to record sent notification",
				"error", err,
				"notification_id", record.ID)
			return
		}
		d.logger.Info("notification sent",
			"notification_id", record.ID,
			"message_id", record.MessageID,
			"recipient", record.Recipient,
			"attempts", attempts)
		return
	}

	if attempts >= MaxAttempts {
		if err := d.queries.MarkNotificationDead(ctx, record.ID, attempts, sendErr.Error()); err != nil {
			d.logger.Error("failed to record dead notification",
				"error", err,
				"notification_id", record.ID)
			return
		}
		d.logger.Warn("notification marked as dead",
			"notification_id", record.ID,
			"recipient", record.Recipient,
			"attempts", attempts,
			"reason", sendErr)
		return
	}

	backoff := calculateBackoff(attempts)
	nextRetry := now.Add(backoff)
	if err := d.queries.MarkNotificationFailed(ctx, record.ID, attempts, sendErr.Error(), nextRetry); err != nil {
		d.logger.Error("failed to schedule notification retry",
			"error", err,
			"notification_id", record.ID)
		return
	}
	d.logger.Info("notification scheduled for retry",
		"notification_id", record.ID,
		"attempt", attempts,
		"next_retry_at", nextRetry.Format(time.RFC3339),
		"backoff", backoff.String())
}

// attempt sends the message with short in-process retries for transient
// failures. Longer-term retries go through the database schedule.
func (d *Dispatcher) attempt(ctx context.Context, n model.Notification) error {
	msg := Message{
		ID:        n.MessageID,
		Recipient: n.Recipient,
		Subject:   n.Subject,
		Body:      n.Body,
	}

	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, SendTimeout)
		defer cancel()

		if err := d.sender.Send(sendCtx, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// deferToSweep marks a fresh notification as failed with an immediate
// retry time so the next sweep requeues it.
func (d *Dispatcher) deferToSweep(ctx context.Context, n model.Notification) {
	if err := d.queries.MarkNotificationFailed(ctx, n.ID, 0, "queue full", time.Now().UTC()); err != nil {
		d.logger.Error("failed to defer notification",
			"error", err,
			"notification_id", n.ID)
	}
}

// calculateBackoff calculates the exponential backoff duration for a given attempt.
// Attempt 1 = 1 min, Attempt 2 = 2 min, Attempt 3 = 4 min, etc.
func calculateBackoff(attempt int64) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	backoff := time.Duration(float64(InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}
