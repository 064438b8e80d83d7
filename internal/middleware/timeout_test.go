// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTimeoutPassesFastRequests(t *testing.T) {
	wrapped := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "alpha-vantage")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stocks", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-Upstream") != "alpha-vantage" {
		t.Error("handler header lost")
	}
	if rr.Body.String() != `{"ok":true}` {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestTimeoutAnswers503ForStuckHandler(t *testing.T) {
	release := make(chan struct{})
	wrapped := Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer close(release)

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stocks", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if rr.Body.String() != "Request timeout" {
		t.Errorf("body = %q, want %q", rr.Body.String(), "Request timeout")
	}
}

func TestTimeoutDropsLateWrites(t *testing.T) {
	wrote := make(chan struct{})
	wrapped := Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		// The deadline already answered the client; this must vanish.
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("late"))
		close(wrote)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stocks", nil))

	select {
	case <-wrote:
	case <-time.After(time.Second):
		t.Fatal("handler never finished")
	}
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
	if rr.Body.String() != "Request timeout" {
		t.Errorf("late write reached the client: %q", rr.Body.String())
	}
}

func TestTimeoutKeepsHandlerResponseWhenStarted(t *testing.T) {
	// Once the handler has begun responding, the timeout path must
	// not stomp on the status line.
	wrapped := Timeout(20*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		<-r.Context().Done()
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/addItem", nil))

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
}
