// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func registerForm(username, password string) url.Values {
	return url.Values{
		"username":   {username},
		"password":   {password},
		"first_name": {"Philip"},
		"last_name":  {"Fry"},
		"age":        {"25"},
		"country":    {"US"},
		"gender":     {"male"},
	}
}

func TestRegisterThenLogin(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, false)

	resp := postForm(t, c, app.server.URL+RouteRegister, registerForm("fry", "walking-bird-7"))
	resp.Body.Close()
	assertRedirect(t, resp, RouteLogin)

	// Registration must not sign the user in.
	user, err := app.queries.GetUserByUsername(context.Background(), "fry")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if user.Role != "regular" {
		t.Errorf("role = %q, want regular", user.Role)
	}
	if !user.Age.Valid || user.Age.Int64 != 25 {
		t.Errorf("age = %+v, want 25", user.Age)
	}

	app.login(t, c, "fry", "walking-bird-7")

	// Home greets the signed-in user.
	homeResp, err := c.Get(app.server.URL + RouteRoot)
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer homeResp.Body.Close()
	var home map[string]any
	if err := json.NewDecoder(homeResp.Body).Decode(&home); err != nil {
		t.Fatalf("decode home: %v", err)
	}
	if greeting, _ := home["greeting"].(string); !strings.Contains(greeting, "fry") {
		t.Errorf("greeting = %q, want it to name the user", greeting)
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"missing username", "", "walking-bird-7"},
		{"missing password", "fry", ""},
		{"short password", "fry", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := app.client(t, false)
			resp := postForm(t, c, app.server.URL+RouteRegister, url.Values{
				"username": {tt.username},
				"password": {tt.password},
			})
			resp.Body.Close()
			assertRedirect(t, resp, RouteRegister)
		})
	}
}

func TestRegisterDuplicateUsernameKeepsFirstRecord(t *testing.T) {
	app := newTestApp(t)
	c := app.client(t, false)

	resp := postForm(t, c, app.server.URL+RouteRegister, registerForm("leela", "one-eye-only-1"))
	resp.Body.Close()
	assertRedirect(t, resp, RouteLogin)

	resp = postForm(t, c, app.server.URL+RouteRegister, registerForm("leela", "other-password-2"))
	resp.Body.Close()
	assertRedirect(t, resp, RouteRegister)

	// The original credentials still work, the second attempt changed
	// nothing.
	app.login(t, app.client(t, false), "leela", "one-eye-only-1")
}

func TestLoginInvalidCredentialsAreUniform(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "bender", "shiny-metal-40", "regular")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "flexo", "shiny-metal-40"},
		{"wrong password", "bender", "wrong-password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := app.client(t, false)
			resp := postForm(t, c, app.server.URL+RouteLogin, url.Values{
				"username": {tt.username},
				"password": {tt.password},
			})
			resp.Body.Close()
			assertRedirect(t, resp, RouteLogin)

			// Same flash for both cases.
			formResp, err := c.Get(app.server.URL + RouteLogin)
			if err != nil {
				t.Fatalf("GET /login: %v", err)
			}
			defer formResp.Body.Close()
			var form map[string]any
			if err := json.NewDecoder(formResp.Body).Decode(&form); err != nil {
				t.Fatalf("decode form: %v", err)
			}
			if flash, _ := form["flash"].(string); flash != "Invalid username or password" {
				t.Errorf("flash = %q", flash)
			}
		})
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "amy", "kung-fu-grip-9", "admin")
	c := app.client(t, false)
	app.login(t, c, "amy", "kung-fu-grip-9")

	adminResp, err := c.Get(app.server.URL + RouteAdmin)
	if err != nil {
		t.Fatalf("GET /admin: %v", err)
	}
	adminResp.Body.Close()
	if adminResp.StatusCode != http.StatusOK {
		t.Fatalf("admin before logout = %d", adminResp.StatusCode)
	}

	logoutResp, err := c.Get(app.server.URL + RouteLogout)
	if err != nil {
		t.Fatalf("GET /logout: %v", err)
	}
	logoutResp.Body.Close()
	assertRedirect(t, logoutResp, RouteLogin)

	adminResp, err = c.Get(app.server.URL + RouteAdmin)
	if err != nil {
		t.Fatalf("GET /admin: %v", err)
	}
	adminResp.Body.Close()
	assertRedirect(t, adminResp, RouteLogin)
}

func TestRoleSnapshotIsStaleUntilRelogin(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser(t, "hermes", "bureaucrat-grade-36", "regular")
	c := app.client(t, false)
	app.login(t, c, "hermes", "bureaucrat-grade-36")

	// Promote the account after login. The session still carries the
	// regular-role snapshot, so admin stays closed.
	if _, err := app.db.Exec("UPDATE users SET role = 'admin' WHERE id = ?", user.ID); err != nil {
		t.Fatalf("promote user: %v", err)
	}

	resp, err := c.Get(app.server.URL + RouteAdmin)
	if err != nil {
		t.Fatalf("GET /admin: %v", err)
	}
	resp.Body.Close()
	assertRedirect(t, resp, RouteRoot)

	// A fresh login picks up the new role.
	logout, err := c.Get(app.server.URL + RouteLogout)
	if err != nil {
		t.Fatalf("GET /logout: %v", err)
	}
	logout.Body.Close()
	app.login(t, c, "hermes", "bureaucrat-grade-36")

	resp, err = c.Get(app.server.URL + RouteAdmin)
	if err != nil {
		t.Fatalf("GET /admin: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("admin after relogin = %d, want 200", resp.StatusCode)
	}
}
