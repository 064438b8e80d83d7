// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/vitrinecms/vitrine/internal/model"
	"github.com/vitrinecms/vitrine/internal/store"
)

// Field length limits for item input.
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 10000
	MaxPictures          = 20
	MaxPictureRefLength  = 500
)

// ValidationError describes rejected item input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ItemInput is the raw form input for creating or updating an item.
// Pictures arrive as a single comma-separated string, matching the admin
// form field.
type ItemInput struct {
	Pictures             string
	NameEn               string
	NameLocalized        string
	DescriptionEn        string
	DescriptionLocalized string
}

// ItemView is an item prepared for display: descriptions are rendered
// from Markdown to sanitized HTML.
type ItemView struct {
	model.Item
	DescriptionHTML model.LocalizedText `json:"description_html"`
}

// ItemService implements the item lifecycle rules.
type ItemService struct {
	queries  *store.Queries
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewItemService creates a new ItemService.
func NewItemService(db *sql.DB) *ItemService {
	return &ItemService{
		queries: store.New(db),
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// validate checks the input and returns the parsed fields.
func (s *ItemService) validate(input ItemInput) (store.CreateItemParams, error) {
	name := model.LocalizedText{
		En:        strings.TrimSpace(input.NameEn),
		Localized: strings.TrimSpace(input.NameLocalized),
	}
	description := model.LocalizedText{
		En:        strings.TrimSpace(input.DescriptionEn),
		Localized: strings.TrimSpace(input.DescriptionLocalized),
	}

	if name.En == "" {
		return store.CreateItemParams{}, &ValidationError{Field: "name_en", Message: "name is required"}
	}
	if name.Localized == "" {
		return store.CreateItemParams{}, &ValidationError{Field: "name_localized", Message: "localized name is required"}
	}
	if len(name.En) > MaxNameLength || len(name.Localized) > MaxNameLength {
		return store.CreateItemParams{}, &ValidationError{Field: "name", Message: "name too long"}
	}
	if description.En == "" {
		return store.CreateItemParams{}, &ValidationError{Field: "description_en", Message: "description is required"}
	}
	if description.Localized == "" {
		return store.CreateItemParams{}, &ValidationError{Field: "description_localized", Message: "localized description is required"}
	}
	if len(description.En) > MaxDescriptionLength || len(description.Localized) > MaxDescriptionLength {
		return store.CreateItemParams{}, &ValidationError{Field: "description", Message: "description too long"}
	}

	pictures := model.SplitPictures(input.Pictures)
	if len(pictures) > MaxPictures {
		return store.CreateItemParams{}, &ValidationError{Field: "pictures", Message: "too many pictures"}
	}
	for _, p := range pictures {
		if len(p) > MaxPictureRefLength {
			return store.CreateItemParams{}, &ValidationError{Field: "pictures", Message: "picture reference too long"}
		}
	}

	return store.CreateItemParams{
		Pictures:    pictures,
		Name:        name,
		Description: description,
	}, nil
}

// Add creates a new item from form input.
func (s *ItemService) Add(ctx context.Context, input ItemInput) (model.Item, error) {
	params, err := s.validate(input)
	if err != nil {
		return model.Item{}, err
	}
	return s.queries.CreateItem(ctx, params)
}

// Edit updates an existing item from form input.
func (s *ItemService) Edit(ctx context.Context, id int64, input ItemInput) error {
	params, err := s.validate(input)
	if err != nil {
		return err
	}
	return s.queries.UpdateItem(ctx, store.UpdateItemParams{
		ID:          id,
		Pictures:    params.Pictures,
		Name:        params.Name,
		Description: params.Description,
	})
}

// Remove soft-deletes an item. Removing an already removed item is a
// no-op.
func (s *ItemService) Remove(ctx context.Context, id int64) error {
	return s.queries.SoftDeleteItem(ctx, id)
}

// Restore clears the deletion mark on an item.
func (s *ItemService) Restore(ctx context.Context, id int64) error {
	return s.queries.RestoreItem(ctx, id)
}

// Get fetches an item by id, including soft-deleted ones.
func (s *ItemService) Get(ctx context.Context, id int64) (model.Item, error) {
	return s.queries.GetItemByID(ctx, id)
}

// ListActive returns all active items prepared for display.
func (s *ItemService) ListActive(ctx context.Context) ([]ItemView, error) {
	items, err := s.queries.ListActiveItems(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(items), nil
}

// ListAll returns every item including soft-deleted ones, for the admin
// view.
func (s *ItemService) ListAll(ctx context.Context) ([]ItemView, error) {
	items, err := s.queries.ListAllItems(ctx)
	if err != nil {
		return nil, err
	}
	return s.render(items), nil
}

func (s *ItemService) render(items []model.Item) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		views = append(views, ItemView{
			Item: it,
			DescriptionHTML: model.LocalizedText{
				En:        s.renderMarkdown(it.Description.En),
				Localized: s.renderMarkdown(it.Description.Localized),
			},
		})
	}
	return views
}

// renderMarkdown converts Markdown to HTML and strips anything the
// sanitizer does not allow. Item descriptions are admin-entered but the
// output is shown to everyone, so they are sanitized anyway.
func (s *ItemService) renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(src), &buf); err != nil {
		// Fall back to the raw text, escaped by the sanitizer.
		return s.policy.Sanitize(src)
	}
	return s.policy.Sanitize(buf.String())
}
