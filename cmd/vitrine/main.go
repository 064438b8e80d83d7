// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/vitrinecms/vitrine/internal/cache"
	"github.com/vitrinecms/vitrine/internal/config"
	"github.com/vitrinecms/vitrine/internal/handler"
	"github.com/vitrinecms/vitrine/internal/logging"
	"github.com/vitrinecms/vitrine/internal/marketdata"
	"github.com/vitrinecms/vitrine/internal/middleware"
	"github.com/vitrinecms/vitrine/internal/notify"
	"github.com/vitrinecms/vitrine/internal/scheduler"
	"github.com/vitrinecms/vitrine/internal/service"
	"github.com/vitrinecms/vitrine/internal/session"
	"github.com/vitrinecms/vitrine/internal/store"
	"github.com/vitrinecms/vitrine/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Vitrine - session-authenticated catalog server\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_SESSION_SECRET     Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_DB_PATH            SQLite database path (default: ./data/vitrine.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_ALPHAVANTAGE_KEY   Alpha Vantage API key for /stocks and /earnings\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_NASA_KEY           NASA API key for /nasa (default: DEMO_KEY)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_SMTP_HOST          SMTP relay for notifications (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VITRINE_REDIS_URL          Redis URL for the upstream response cache (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("vitrine %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load a .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also mirror WARN and ERROR logs into the event table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	queries := store.New(db)

	if cfg.DoSeed {
		if err := store.Seed(ctx, queries, logger); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	upstreamCache := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxEntries: cfg.CacheMaxSize,
	})
	defer func() {
		if err := upstreamCache.Close(); err != nil {
			slog.Error("error closing cache", "error", err)
		}
	}()

	marketClient := marketdata.New(marketdata.Config{
		AlphaVantageKey: cfg.AlphaVantageKey,
		NASAKey:         cfg.NASAKey,
		Timeout:         cfg.UpstreamTimeout,
		CacheTTL:        time.Duration(cfg.CacheTTL) * time.Second,
		Cache:           upstreamCache,
	})

	// Notification dispatcher, only when an SMTP relay is configured.
	var dispatcher *notify.Dispatcher
	if cfg.SMTPEnabled() {
		sender := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.NotifyFrom,
		})
		dispatcher = notify.NewDispatcher(queries, sender, logger, notify.DefaultConfig())
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		slog.Info("notification dispatcher started", "host", cfg.SMTPHost)
	} else {
		slog.Info("no SMTP relay configured, notifications disabled")
	}

	eventService := service.NewEventService(db)

	sched := scheduler.New(logger)
	retention := time.Duration(cfg.EventRetentionDays) * 24 * time.Hour
	if err := sched.AddJob("event-purge", scheduler.ScheduleEventPurge,
		scheduler.NewEventPurgeJob(eventService, retention, logger)); err != nil {
		return fmt.Errorf("registering event purge job: %w", err)
	}
	if dispatcher != nil {
		if err := sched.AddJob("notification-sweep", scheduler.ScheduleNotificationSweep,
			scheduler.NewNotificationSweepJob(dispatcher)); err != nil {
			return fmt.Errorf("registering notification sweep job: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	authHandler := handler.NewAuthHandler(db, sessionManager, loginProtection, dispatcher, cfg.NotifyTo)
	itemHandler := handler.NewItemHandler(db, sessionManager, cfg.LocalizedLang)
	adminHandler := handler.NewAdminHandler(db, sessionManager)
	marketHandler := handler.NewMarketDataHandler(marketClient, cfg.MarketSymbol)
	healthHandler := handler.NewHealthHandler(db)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(sessionManager.LoadAndSave)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)

	publicRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)
	proxyRateLimiter := middleware.NewGlobalRateLimiter(2.0, 5)

	// Public pages
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.HTMLMiddleware())
		r.Use(middleware.OptionalLoadUser(sessionManager, db))

		r.Get(handler.RouteRoot, itemHandler.Home)
		r.Get(handler.RouteItems, itemHandler.List)
		r.Get(handler.RouteHealth, healthHandler.Health)
		r.Get(handler.RouteLogout, authHandler.Logout)
	})

	// Auth forms: CSRF plus the login brute-force protection
	r.Group(func(r chi.Router) {
		r.Use(publicRateLimiter.HTMLMiddleware())
		r.Use(csrfMiddleware)
		r.Use(loginProtection.Middleware())

		r.Get(handler.RouteRegister, authHandler.RegisterForm)
		r.Post(handler.RouteRegister, authHandler.Register)
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.Post(handler.RouteLogin, authHandler.Login)
	})

	// Admin item management
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.RequireAdminWithEventLog(sessionManager, eventService))
		r.Use(middleware.LoadUser(sessionManager, db))

		r.Get(handler.RouteAdmin, adminHandler.Overview)
		r.Post(handler.RouteAdminAddItem, adminHandler.AddItem)
		r.Post(handler.RouteAdminUpdateItem, adminHandler.UpdateItem)
		r.Post(handler.RouteAdminDeleteItem, adminHandler.DeleteItem)
		r.Post(handler.RouteAdminRestoreItem, adminHandler.RestoreItem)
	})

	// Proxied upstream data, rate-limited harder than the rest
	r.Group(func(r chi.Router) {
		r.Use(proxyRateLimiter.Middleware())

		r.Get(handler.RouteStocks, marketHandler.Stocks)
		r.Get(handler.RouteEarnings, marketHandler.Earnings)
		r.Get(handler.RouteNasa, marketHandler.Nasa)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server",
			"addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
