// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout bounds each request. Handlers see the deadline through the
// request context. If nothing has reached the client when it expires,
// a 503 is sent and anything the handler writes afterwards is dropped.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			gw := &guardedWriter{dst: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				gw.abandon()
			}
		})
	}
}

// guardedWriter serializes access to the response. Once the deadline
// fires the response belongs to the timeout path; the handler's late
// writes go nowhere.
type guardedWriter struct {
	mu        sync.Mutex
	dst       http.ResponseWriter
	started   bool
	abandoned bool
}

func (g *guardedWriter) Header() http.Header {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return http.Header{}
	}
	return g.dst.Header()
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned || g.started {
		return
	}
	g.started = true
	g.dst.WriteHeader(code)
}

func (g *guardedWriter) Write(p []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.abandoned {
		return len(p), nil
	}
	if !g.started {
		g.started = true
		g.dst.WriteHeader(http.StatusOK)
	}
	return g.dst.Write(p)
}

func (g *guardedWriter) abandon() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return
	}
	g.abandoned = true
	g.dst.Header().Set("Content-Type", "text/plain; charset=utf-8")
	g.dst.WriteHeader(http.StatusServiceUnavailable)
	_, _ = g.dst.Write([]byte("Request timeout"))
}
