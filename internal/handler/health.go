// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/vitrinecms/vitrine/internal/middleware"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db, startTime: time.Now()}
}

// healthCheck is a single probe result.
type healthCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
}

// Health handles GET /health. Unauthenticated callers get a bare
// status; signed-in users also see uptime and the database probe.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "ok"
	statusCode := http.StatusOK
	if err := h.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	if middleware.GetUser(r) == nil {
		writeJSON(w, statusCode, map[string]any{"status": status})
		return
	}

	writeJSON(w, statusCode, map[string]any{
		"status": status,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"checks": map[string]healthCheck{
			"database": {
				Status:  status,
				Latency: time.Since(start).Round(time.Millisecond).String(),
			},
		},
	})
}
