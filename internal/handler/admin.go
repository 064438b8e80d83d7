// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/vitrinecms/vitrine/internal/middleware"
	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/service"
	"github.com/vitrinecms/vitrine/internal/store"
)

// AdminHandler handles the item management routes. All of them sit
// behind the RequireAdmin middleware.
type AdminHandler struct {
	items          *service.ItemService
	sessionManager *scs.SessionManager
	eventService   *service.EventService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *sql.DB, sm *scs.SessionManager) *AdminHandler {
	return &AdminHandler{
		items:          service.NewItemService(db),
		sessionManager: sm,
		eventService:   service.NewEventService(db),
	}
}

// Overview handles GET /admin: every item including soft-deleted ones,
// so removed entries can be inspected and restored.
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	views, err := h.items.ListAll(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list items", "error", err)
		return
	}

	data := map[string]any{"items": views}
	if flash, flashType := popFlash(r, h.sessionManager); flash != "" {
		data["flash"] = flash
		data["flash_type"] = flashType
	}
	writeJSONSuccess(w, data)
}

// itemInputFromForm collects the admin form fields.
func itemInputFromForm(r *http.Request) service.ItemInput {
	return service.ItemInput{
		Pictures:             r.FormValue("pictures"),
		NameEn:               r.FormValue("name_en"),
		NameLocalized:        r.FormValue("name_localized"),
		DescriptionEn:        r.FormValue("description_en"),
		DescriptionLocalized: r.FormValue("description_localized"),
	}
}

// AddItem handles POST /admin/addItem.
func (h *AdminHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if !parseFormOrRedirect(w, r, h.sessionManager, RouteAdmin) {
		return
	}

	item, err := h.items.Add(r.Context(), itemInputFromForm(r))
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			flashError(w, r, h.sessionManager, RouteAdmin, verr.Message)
			return
		}
		logAndInternalError(w, "failed to add item", "error", err)
		return
	}

	h.logItemEvent(r, "Item added", item.ID)
	flashSuccess(w, r, h.sessionManager, RouteAdmin, "Item added")
}

// UpdateItem handles POST /admin/updateItem/{id}.
func (h *AdminHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, RouteAdmin, "Invalid item id")
		return
	}
	if !parseFormOrRedirect(w, r, h.sessionManager, RouteAdmin) {
		return
	}

	if err := h.items.Edit(r.Context(), id, itemInputFromForm(r)); err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			flashError(w, r, h.sessionManager, RouteAdmin, verr.Message)
		case errors.Is(err, store.ErrNotFound):
			logAndInternalError(w, "item to update not found", "item_id", id)
		default:
			logAndInternalError(w, "failed to update item", "error", err, "item_id", id)
		}
		return
	}

	h.logItemEvent(r, "Item updated", id)
	flashSuccess(w, r, h.sessionManager, RouteAdmin, "Item updated")
}

// DeleteItem handles POST /admin/deleteItem/{id}. Deleting an already
// deleted item succeeds without touching the original deletion time.
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, RouteAdmin, "Invalid item id")
		return
	}

	if err := h.items.Remove(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logAndInternalError(w, "item to delete not found", "item_id", id)
			return
		}
		logAndInternalError(w, "failed to delete item", "error", err, "item_id", id)
		return
	}

	h.logItemEvent(r, "Item deleted", id)
	flashSuccess(w, r, h.sessionManager, RouteAdmin, "Item deleted")
}

// RestoreItem handles POST /admin/restoreItem/{id}.
func (h *AdminHandler) RestoreItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		flashError(w, r, h.sessionManager, RouteAdmin, "Invalid item id")
		return
	}

	if err := h.items.Restore(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logAndInternalError(w, "item to restore not found", "item_id", id)
			return
		}
		logAndInternalError(w, "failed to restore item", "error", err, "item_id", id)
		return
	}

	h.logItemEvent(r, "Item restored", id)
	flashSuccess(w, r, h.sessionManager, RouteAdmin, "Item restored")
}

func (h *AdminHandler) logItemEvent(r *http.Request, message string, itemID int64) {
	if err := h.eventService.LogItemEvent(r.Context(), model.EventLevelInfo,
		message, middleware.GetUserID(r), middleware.GetClientIP(r), r.URL.Path,
		map[string]any{"item_id": itemID}); err != nil {
		slog.Error("failed to log item event", "error", err)
	}
}
