// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/vitrinecms/vitrine/internal/session"
)

// flashAndRedirect stores a flash message in the session and redirects.
// Uses http.StatusSeeOther (303) for POST redirects.
func flashAndRedirect(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message, messageType string) {
	sm.Put(r.Context(), session.KeyFlash, message)
	sm.Put(r.Context(), session.KeyFlash+"_type", messageType)
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// flashError stores an error flash message and redirects.
func flashError(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, flashTypeError)
}

// flashSuccess stores a success flash message and redirects.
func flashSuccess(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, url, message string) {
	flashAndRedirect(w, r, sm, url, message, flashTypeSuccess)
}

// popFlash removes and returns the pending flash message, if any.
func popFlash(r *http.Request, sm *scs.SessionManager) (message, messageType string) {
	message = sm.PopString(r.Context(), session.KeyFlash)
	if message == "" {
		return "", ""
	}
	messageType = sm.PopString(r.Context(), session.KeyFlash+"_type")
	if messageType == "" {
		messageType = flashTypeInfo
	}
	return message, messageType
}

// parseFormOrRedirect parses the request form, redirecting with a flash
// on failure. Returns false when the redirect was already written.
func parseFormOrRedirect(w http.ResponseWriter, r *http.Request, sm *scs.SessionManager, redirectURL string) bool {
	if err := r.ParseForm(); err != nil {
		flashError(w, r, sm, redirectURL, "Invalid form data")
		return false
	}
	return true
}

// idParam extracts the {id} chi URL parameter as an int64.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// logAndHTTPError logs an error and writes a plain HTTP error response.
func logAndHTTPError(w http.ResponseWriter, message string, statusCode int, logMsg string, args ...any) {
	slog.Error(logMsg, args...)
	http.Error(w, message, statusCode)
}

// logAndInternalError logs an error and writes a 500 response. The
// client sees only the generic message, detail stays server-side.
func logAndInternalError(w http.ResponseWriter, logMsg string, args ...any) {
	logAndHTTPError(w, "Internal Server Error", http.StatusInternalServerError, logMsg, args...)
}
