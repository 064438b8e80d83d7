// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides business logic: item lifecycle rules and
// event logging for the audit trail.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/store"
)

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent creates a new event log entry. The request path, when known,
// travels in the metadata.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, userID int64, ipAddress, path string, metadata map[string]any) error {
	if path != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["path"] = path
	}

	metadataJSON := "{}"
	if len(metadata) > 0 {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    userID,
		Metadata:  metadataJSON,
		IPAddress: ipAddress,
	})
	if err != nil {
		slog.Error("failed to log event", "error", err, "category", category, "message", message)
		return err
	}

	return nil
}

// LogAuthEvent logs an authentication-related event.
func (s *EventService) LogAuthEvent(ctx context.Context, level, message string, userID int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryAuth, message, userID, ipAddress, path, metadata)
}

// LogItemEvent logs an item-related event.
func (s *EventService) LogItemEvent(ctx context.Context, level, message string, userID int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryItem, message, userID, ipAddress, path, metadata)
}

// LogUserEvent logs a user-related event.
func (s *EventService) LogUserEvent(ctx context.Context, level, message string, userID int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryUser, message, userID, ipAddress, path, metadata)
}

// LogNotifyEvent logs a notification-related event.
func (s *EventService) LogNotifyEvent(ctx context.Context, level, message string, userID int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategoryNotify, message, userID, ipAddress, path, metadata)
}

// LogSystemEvent logs a system-related event.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, userID int64, ipAddress, path string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySystem, message, userID, ipAddress, path, metadata)
}

// DeleteOldEvents removes events older than the specified duration and
// reports how many were purged.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.queries.DeleteOldEvents(ctx, cutoff)
}
