// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/vitrinecms/vitrine/internal/auth"
	"github.com/vitrinecms/vitrine/internal/middleware"
	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/notify"
	"github.com/vitrinecms/vitrine/internal/service"
	"github.com/vitrinecms/vitrine/internal/session"
	"github.com/vitrinecms/vitrine/internal/store"
	"github.com/vitrinecms/vitrine/internal/util"
)

// Input limits for registration.
const (
	minPasswordLength = 8
	maxUsernameLength = 50
	maxNameLength     = 100
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	queries         *store.Queries
	sessionManager  *scs.SessionManager
	eventService    *service.EventService
	loginProtection *middleware.LoginProtection
	dispatcher      *notify.Dispatcher
	notifyTo        string
}

// NewAuthHandler creates a new AuthHandler. The dispatcher may be nil
// when no SMTP relay is configured; notifications are then skipped.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, lp *middleware.LoginProtection, dispatcher *notify.Dispatcher, notifyTo string) *AuthHandler {
	return &AuthHandler{
		queries:         store.New(db),
		sessionManager:  sm,
		eventService:    service.NewEventService(db),
		loginProtection: lp,
		dispatcher:      dispatcher,
		notifyTo:        notifyTo,
	}
}

// notifyOperator enqueues a fire-and-forget notification. Failures are
// the dispatcher's problem, never the caller's.
func (h *AuthHandler) notifyOperator(r *http.Request, subject, body string) {
	if h.dispatcher == nil || h.notifyTo == "" {
		return
	}
	h.dispatcher.Notify(r.Context(), h.notifyTo, subject, body)
}

// RegisterForm handles GET /register.
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), session.KeyUserID) > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	data := map[string]any{
		"form":   "register",
		"fields": []string{"username", "password", "first_name", "last_name", "age", "country", "gender"},
	}
	if flash, flashType := popFlash(r, h.sessionManager); flash != "" {
		data["flash"] = flash
		data["flash_type"] = flashType
	}
	writeJSONSuccess(w, data)
}

// Register handles POST /register. Creates the account and redirects to
// the login form; it does not sign the user in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, RouteRegister) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	switch {
	case username == "" || password == "":
		flashError(w, r, h.sessionManager, RouteRegister, "Username and password are required")
		return
	case len(username) > maxUsernameLength:
		flashError(w, r, h.sessionManager, RouteRegister, "Username is too long")
		return
	case len(password) < minPasswordLength:
		flashError(w, r, h.sessionManager, RouteRegister,
			fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		return
	}

	firstName := strings.TrimSpace(r.FormValue("first_name"))
	lastName := strings.TrimSpace(r.FormValue("last_name"))
	if len(firstName) > maxNameLength || len(lastName) > maxNameLength {
		flashError(w, r, h.sessionManager, RouteRegister, "Name is too long")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logAndInternalError(w, "failed to hash password", "error", err)
		return
	}

	user, err := h.queries.CreateUser(r.Context(), store.CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		FirstName:    util.NullStringFromValue(firstName),
		LastName:     util.NullStringFromValue(lastName),
		Country:      util.NullStringFromValue(strings.TrimSpace(r.FormValue("country"))),
		Gender:       util.NullStringFromValue(strings.TrimSpace(r.FormValue("gender"))),
		Age:          util.ParseNullInt64Positive(r.FormValue("age")),
		Role:         model.RoleRegular,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			flashError(w, r, h.sessionManager, RouteRegister, "Username is already taken")
			return
		}
		logAndInternalError(w, "failed to create user", "error", err, "username", username)
		return
	}

	clientIP := middleware.GetClientIP(r)
	if err := h.eventService.LogUserEvent(r.Context(), model.EventLevelInfo,
		"User registered", user.ID, clientIP, r.URL.Path,
		map[string]any{"username": user.Username}); err != nil {
		slog.Error("failed to log registration event", "error", err)
	}

	h.notifyOperator(r, "New registration: "+user.Username,
		fmt.Sprintf("User %q registered at %s from %s.",
			user.Username, time.Now().UTC().Format(time.RFC3339), clientIP))

	flashSuccess(w, r, h.sessionManager, RouteLogin, "Registration successful, please log in")
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if h.sessionManager.GetInt64(r.Context(), session.KeyUserID) > 0 {
		http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
		return
	}

	data := map[string]any{
		"form":   "login",
		"fields": []string{"username", "password"},
	}
	if flash, flashType := popFlash(r, h.sessionManager); flash != "" {
		data["flash"] = flash
		data["flash_type"] = flashType
	}
	writeJSONSuccess(w, data)
}

// Login handles POST /login. Unknown username and wrong password get
// the same response so the two cases cannot be told apart.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, RouteLogin) {
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	clientIP := middleware.GetClientIP(r)

	if username == "" || password == "" {
		flashError(w, r, h.sessionManager, RouteLogin, "Username and password are required")
		return
	}

	if h.loginProtection != nil {
		if locked, remaining := h.loginProtection.IsAccountLocked(username); locked {
			h.logAuthWarning(r, "Login attempt on locked account", 0, clientIP, username)
			flashError(w, r, h.sessionManager, RouteLogin,
				fmt.Sprintf("Account temporarily locked, try again in %s", remaining.Round(time.Second)))
			return
		}
	}

	user, err := h.queries.GetUserByUsername(r.Context(), username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logAndInternalError(w, "failed to look up user", "error", err)
			return
		}
		// Burn a verification so a missing account is not faster
		// than a wrong password.
		_, _ = auth.CheckPassword(password, auth.DummyHash)
		h.failLogin(w, r, 0, clientIP, username)
		return
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		logAndInternalError(w, "failed to verify password", "error", err)
		return
	}
	if !ok {
		h.failLogin(w, r, user.ID, clientIP, username)
		return
	}

	if auth.NeedsRehash(user.PasswordHash) {
		if newHash, err := auth.HashPassword(password); err == nil {
			if err := h.queries.UpdateUserPasswordHash(r.Context(), user.ID, newHash); err != nil {
				slog.Error("failed to update password hash", "error", err, "user_id", user.ID)
			}
		}
	}

	// New token before privileges attach to the session.
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		logAndInternalError(w, "failed to renew session token", "error", err)
		return
	}
	h.sessionManager.Put(r.Context(), session.KeyUserID, user.ID)
	h.sessionManager.Put(r.Context(), session.KeyRole, user.Role)
	h.sessionManager.Put(r.Context(), session.KeyUsername, user.Username)

	if h.loginProtection != nil {
		h.loginProtection.RecordSuccessfulLogin(username)
	}

	if err := h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo,
		"User logged in", user.ID, clientIP, r.URL.Path,
		map[string]any{"username": user.Username}); err != nil {
		slog.Error("failed to log login event", "error", err)
	}

	h.notifyOperator(r, "Login: "+user.Username,
		fmt.Sprintf("User %q logged in at %s from %s.",
			user.Username, time.Now().UTC().Format(time.RFC3339), clientIP))

	http.Redirect(w, r, RouteRoot, http.StatusSeeOther)
}

// failLogin records a failed attempt and answers with the single
// invalid-credentials outcome.
func (h *AuthHandler) failLogin(w http.ResponseWriter, r *http.Request, userID int64, clientIP, username string) {
	h.logAuthWarning(r, "Failed login attempt", userID, clientIP, username)

	if h.loginProtection != nil {
		if locked, duration := h.loginProtection.RecordFailedAttempt(username); locked {
			flashError(w, r, h.sessionManager, RouteLogin,
				fmt.Sprintf("Account temporarily locked, try again in %s", duration.Round(time.Second)))
			return
		}
	}
	flashError(w, r, h.sessionManager, RouteLogin, "Invalid username or password")
}

func (h *AuthHandler) logAuthWarning(r *http.Request, message string, userID int64, clientIP, username string) {
	if err := h.eventService.LogAuthEvent(r.Context(), model.EventLevelWarning,
		message, userID, clientIP, r.URL.Path,
		map[string]any{"username": username}); err != nil {
		slog.Error("failed to log auth event", "error", err)
	}
}

// Logout handles GET /logout. Destroys the session entirely.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sessionManager.GetInt64(r.Context(), session.KeyUserID)

	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		logAndInternalError(w, "failed to destroy session", "error", err)
		return
	}

	if userID > 0 {
		if err := h.eventService.LogAuthEvent(r.Context(), model.EventLevelInfo,
			"User logged out", userID, middleware.GetClientIP(r), r.URL.Path, nil); err != nil {
			slog.Error("failed to log logout event", "error", err)
		}
	}

	http.Redirect(w, r, RouteLogin, http.StatusSeeOther)
}
