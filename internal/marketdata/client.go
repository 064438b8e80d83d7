// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package marketdata proxies quote and space imagery data from third
// party APIs. Responses are cached so upstream rate limits are not
// burned on every page load.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vitrinecms/vitrine/internal/cache"
)

const (
	alphaVantageURL = "https://www.alphavantage.co/query"
	nasaAPODURL     = "https://api.nasa.gov/planetary/apod"

	defaultTimeout = 10 * time.Second

	// Upstream responses are capped so a misbehaving API cannot exhaust
	// memory.
	maxResponseBytes = 4 << 20
)

// ErrUpstream indicates the external API call failed or returned garbage.
var ErrUpstream = errors.New("upstream request failed")

// Config holds client configuration.
type Config struct {
	// AlphaVantageKey authenticates quote requests.
	AlphaVantageKey string

	// NASAKey authenticates APOD requests. NASA accepts DEMO_KEY with a
	// tight rate limit.
	NASAKey string

	// Timeout bounds each upstream call.
	Timeout time.Duration

	// CacheTTL controls how long proxied payloads are reused.
	CacheTTL time.Duration

	// Cache stores proxied payloads. Required.
	Cache cache.Cacher

	// AlphaVantageBaseURL and NASABaseURL override the API endpoints,
	// used by tests.
	AlphaVantageBaseURL string
	NASABaseURL         string
}

// Client fetches market and space data.
type Client struct {
	httpClient *http.Client
	cache      cache.Cacher
	cacheTTL   time.Duration

	alphaVantageURL string
	nasaURL         string
	alphaVantageKey string
	nasaKey         string
}

// APOD is the astronomy picture of the day, reduced to the fields the
// application shows.
type APOD struct {
	Date string `json:"date"`
	URL  string `json:"url"`
}

// New creates a market data client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	avURL := cfg.AlphaVantageBaseURL
	if avURL == "" {
		avURL = alphaVantageURL
	}
	nURL := cfg.NASABaseURL
	if nURL == "" {
		nURL = nasaAPODURL
	}

	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		cache:           cfg.Cache,
		cacheTTL:        cfg.CacheTTL,
		alphaVantageURL: avURL,
		nasaURL:         nURL,
		alphaVantageKey: cfg.AlphaVantageKey,
		nasaKey:         cfg.NASAKey,
	}
}

// MonthlySeries returns the raw Alpha Vantage monthly time series for a
// symbol.
func (c *Client) MonthlySeries(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.alphaVantage(ctx, "TIME_SERIES_MONTHLY", symbol)
}

// Earnings returns the raw Alpha Vantage earnings history for a symbol.
func (c *Client) Earnings(ctx context.Context, symbol string) (json.RawMessage, error) {
	return c.alphaVantage(ctx, "EARNINGS", symbol)
}

func (c *Client) alphaVantage(ctx context.Context, function, symbol string) (json.RawMessage, error) {
	cacheKey := "marketdata:" + function + ":" + symbol

	if payload, err := c.cache.Get(ctx, cacheKey); err == nil {
		return payload, nil
	}

	query := url.Values{}
	query.Set("function", function)
	query.Set("symbol", symbol)
	query.Set("apikey", c.alphaVantageKey)

	payload, err := c.fetchJSON(ctx, c.alphaVantageURL+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("alpha vantage %s %s: %w", function, symbol, err)
	}

	if err := c.cache.Set(ctx, cacheKey, payload, c.cacheTTL); err != nil {
		slog.Warn("failed to cache market data", "key", cacheKey, "error", err)
	}
	return payload, nil
}

// PictureOfTheDay returns today's NASA APOD date and image URL.
func (c *Client) PictureOfTheDay(ctx context.Context) (APOD, error) {
	const cacheKey = "marketdata:apod"

	if payload, err := c.cache.Get(ctx, cacheKey); err == nil {
		var apod APOD
		if err := json.Unmarshal(payload, &apod); err == nil {
			return apod, nil
		}
	}

	query := url.Values{}
	query.Set("api_key", c.nasaKey)

	payload, err := c.fetchJSON(ctx, c.nasaURL+"?"+query.Encode())
	if err != nil {
		return APOD{}, fmt.Errorf("nasa apod: %w", err)
	}

	var apod APOD
	if err := json.Unmarshal(payload, &apod); err != nil {
		return APOD{}, fmt.Errorf("nasa apod: decode: %w", ErrUpstream)
	}

	if compact, err := json.Marshal(apod); err == nil {
		if err := c.cache.Set(ctx, cacheKey, compact, c.cacheTTL); err != nil {
			slog.Warn("failed to cache apod", "error", err)
		}
	}
	return apod, nil
}

// fetchJSON performs a GET request and returns the body after checking
// status and content sanity.
func (c *Client) fetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON payload", ErrUpstream)
	}
	return body, nil
}
