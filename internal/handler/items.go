// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"golang.org/x/text/language"

	"github.com/vitrinecms/vitrine/internal/middleware"
	"github.com/vitrinecms/vitrine/internal/service"
)

// listedItem is one catalog entry in the public listing, with the
// name and description already picked for the caller's language.
type listedItem struct {
	ID          int64    `json:"id"`
	Pictures    []string `json:"pictures"`
	Name        string   `json:"name"`
	Description string   `json:"description_html"`
}

// ItemHandler serves the public pages.
type ItemHandler struct {
	items          *service.ItemService
	sessionManager *scs.SessionManager
	matcher        language.Matcher
}

// NewItemHandler creates a new ItemHandler. localizedLang is the BCP 47
// tag of the catalog's second language; listing responses pick between
// it and English based on the Accept-Language header.
func NewItemHandler(db *sql.DB, sm *scs.SessionManager, localizedLang string) *ItemHandler {
	tag, err := language.Parse(localizedLang)
	if err != nil {
		tag = language.German
	}
	return &ItemHandler{
		items:          service.NewItemService(db),
		sessionManager: sm,
		// English first: it is the fallback when nothing matches.
		matcher: language.NewMatcher([]language.Tag{language.English, tag}),
	}
}

// Home handles GET /. Greets the signed-in user by name.
func (h *ItemHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"app": "vitrine"}
	if user := middleware.GetUser(r); user != nil {
		data["greeting"] = "Welcome back, " + user.Username
		data["role"] = user.Role
	} else {
		data["greeting"] = "Welcome, guest"
	}
	if flash, flashType := popFlash(r, h.sessionManager); flash != "" {
		data["flash"] = flash
		data["flash_type"] = flashType
	}
	writeJSONSuccess(w, data)
}

// List handles GET /items: active items only, in insertion order.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.items.ListActive(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list items", "error", err)
		return
	}

	useLocalized := h.preferLocalized(r.Header.Get("Accept-Language"))

	listed := make([]listedItem, 0, len(views))
	for _, v := range views {
		entry := listedItem{
			ID:          v.ID,
			Pictures:    v.Pictures,
			Name:        v.Name.En,
			Description: v.DescriptionHTML.En,
		}
		if useLocalized {
			entry.Name = v.Name.Localized
			entry.Description = v.DescriptionHTML.Localized
		}
		listed = append(listed, entry)
	}

	writeJSONSuccess(w, map[string]any{"items": listed})
}

// preferLocalized reports whether the Accept-Language header favors the
// catalog's second language over English.
func (h *ItemHandler) preferLocalized(acceptLanguage string) bool {
	if acceptLanguage == "" {
		return false
	}
	_, index := language.MatchStrings(h.matcher, acceptLanguage)
	return index == 1
}
