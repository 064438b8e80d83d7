// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/vitrinecms/vitrine/internal/marketdata"
)

// MarketDataHandler proxies the third-party market and space data
// endpoints. Upstream failures surface as a generic 500, the cause is
// logged server-side only.
type MarketDataHandler struct {
	client *marketdata.Client
	symbol string
}

// NewMarketDataHandler creates a new MarketDataHandler. symbol is the
// stock ticker proxied by the stocks and earnings routes.
func NewMarketDataHandler(client *marketdata.Client, symbol string) *MarketDataHandler {
	return &MarketDataHandler{client: client, symbol: symbol}
}

// Stocks handles GET /stocks: the monthly time series, forwarded as-is.
func (h *MarketDataHandler) Stocks(w http.ResponseWriter, r *http.Request) {
	body, err := h.client.MonthlySeries(r.Context(), h.symbol)
	if err != nil {
		logAndInternalError(w, "stocks upstream failed", "error", err, "symbol", h.symbol)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// Earnings handles GET /earnings.
func (h *MarketDataHandler) Earnings(w http.ResponseWriter, r *http.Request) {
	body, err := h.client.Earnings(r.Context(), h.symbol)
	if err != nil {
		logAndInternalError(w, "earnings upstream failed", "error", err, "symbol", h.symbol)
		return
	}
	writeRawJSON(w, http.StatusOK, body)
}

// Nasa handles GET /nasa: the astronomy picture of the day, reduced to
// its date and image URL.
func (h *MarketDataHandler) Nasa(w http.ResponseWriter, r *http.Request) {
	apod, err := h.client.PictureOfTheDay(r.Context())
	if err != nil {
		logAndInternalError(w, "apod upstream failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, apod)
}
