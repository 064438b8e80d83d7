// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/vitrinecms/vitrine/internal/auth"
	"github.com/vitrinecms/vitrine/internal/middleware"
	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/session"
	"github.com/vitrinecms/vitrine/internal/store"
)

// testDB creates an in-memory SQLite database with the full schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testApp is a running application instance backed by an in-memory
// database, with the production route layout minus CSRF and rate
// limiting.
type testApp struct {
	db      *sql.DB
	queries *store.Queries
	server  *httptest.Server
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := testDB(t)
	sm := session.New(db, true)

	authHandler := NewAuthHandler(db, sm, nil, nil, "")
	itemHandler := NewItemHandler(db, sm, "de")
	adminHandler := NewAdminHandler(db, sm)
	healthHandler := NewHealthHandler(db)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.OptionalLoadUser(sm, db))

	r.Get(RouteRoot, itemHandler.Home)
	r.Get(RouteRegister, authHandler.RegisterForm)
	r.Post(RouteRegister, authHandler.Register)
	r.Get(RouteLogin, authHandler.LoginForm)
	r.Post(RouteLogin, authHandler.Login)
	r.Get(RouteLogout, authHandler.Logout)
	r.Get(RouteItems, itemHandler.List)
	r.Get(RouteHealth, healthHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(sm))
		r.Get(RouteAdmin, adminHandler.Overview)
		r.Post(RouteAdminAddItem, adminHandler.AddItem)
		r.Post(RouteAdminUpdateItem, adminHandler.UpdateItem)
		r.Post(RouteAdminDeleteItem, adminHandler.DeleteItem)
		r.Post(RouteAdminRestoreItem, adminHandler.RestoreItem)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testApp{db: db, queries: store.New(db), server: server}
}

// client returns an HTTP client with a cookie jar. When follow is
// false, redirects are returned to the caller instead of being chased.
func (a *testApp) client(t *testing.T, follow bool) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	c := &http.Client{Jar: jar}
	if !follow {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return c
}

// postForm submits a form and returns the response.
func postForm(t *testing.T, c *http.Client, rawURL string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.Post(rawURL, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("POST %s: %v", rawURL, err)
	}
	return resp
}

// createUser inserts a user directly, bypassing the register route.
func (a *testApp) createUser(t *testing.T, username, password, role string) model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := a.queries.CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// login signs a user in through the login route, storing the session
// cookie in the client's jar.
func (a *testApp) login(t *testing.T, c *http.Client, username, password string) {
	t.Helper()
	resp := postForm(t, c, a.server.URL+RouteLogin, url.Values{
		"username": {username},
		"password": {password},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != RouteRoot {
		t.Fatalf("login redirect = %q, want %q", loc, RouteRoot)
	}
}

// assertRedirect checks a 303 response and its target.
func assertRedirect(t *testing.T, resp *http.Response, wantLocation string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != wantLocation {
		t.Fatalf("redirect = %q, want %q", loc, wantLocation)
	}
}
