// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vitrinecms/vitrine/internal/model"
)

func scanItem(scan func(...any) error) (model.Item, error) {
	var (
		it       model.Item
		pictures string
		deleted  sql.NullTime
	)
	err := scan(
		&it.ID,
		&pictures,
		&it.Name.En,
		&it.Name.Localized,
		&it.Description.En,
		&it.Description.Localized,
		&it.CreatedAt,
		&it.UpdatedAt,
		&deleted,
	)
	if err != nil {
		return model.Item{}, err
	}
	it.Pictures = model.DecodePictures(pictures)
	if deleted.Valid {
		t := deleted.Time
		it.DeletedAt = &t
	}
	return it, nil
}

const itemColumns = `id, pictures, name_en, name_localized, description_en, description_localized, created_at, updated_at, deleted_at`

const createItem = `
INSERT INTO items (pictures, name_en, name_localized, description_en, description_localized)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + itemColumns

// CreateItemParams holds the fields for CreateItem.
type CreateItemParams struct {
	Pictures    []string
	Name        model.LocalizedText
	Description model.LocalizedText
}

// CreateItem inserts a new item and returns the stored row.
func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (model.Item, error) {
	row := q.db.QueryRowContext(ctx, createItem,
		model.EncodePictures(arg.Pictures),
		arg.Name.En,
		arg.Name.Localized,
		arg.Description.En,
		arg.Description.Localized,
	)
	return scanItem(row.Scan)
}

const getItemByID = `
SELECT ` + itemColumns + `
FROM items
WHERE id = ?
`

// GetItemByID fetches an item by primary key, including soft-deleted rows.
func (q *Queries) GetItemByID(ctx context.Context, id int64) (model.Item, error) {
	row := q.db.QueryRowContext(ctx, getItemByID, id)
	it, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Item{}, ErrNotFound
	}
	return it, err
}

const updateItem = `
UPDATE items
SET pictures = ?, name_en = ?, name_localized = ?, description_en = ?, description_localized = ?, updated_at = ?
WHERE id = ?
`

// UpdateItemParams holds the fields for UpdateItem.
type UpdateItemParams struct {
	ID          int64
	Pictures    []string
	Name        model.LocalizedText
	Description model.LocalizedText
}

// UpdateItem replaces the mutable fields of an item and refreshes
// updated_at. Soft-deleted items remain updatable so an admin can fix a
// record before restoring it.
func (q *Queries) UpdateItem(ctx context.Context, arg UpdateItemParams) error {
	res, err := q.db.ExecContext(ctx, updateItem,
		model.EncodePictures(arg.Pictures),
		arg.Name.En,
		arg.Name.Localized,
		arg.Description.En,
		arg.Description.Localized,
		time.Now().UTC(),
		arg.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const softDeleteItem = `
UPDATE items
SET deleted_at = ?
WHERE id = ? AND deleted_at IS NULL
`

// SoftDeleteItem marks an item deleted. Deleting an already deleted item
// is a no-op and keeps the original deletion timestamp.
func (q *Queries) SoftDeleteItem(ctx context.Context, id int64) error {
	// Existence is checked separately from the deleted_at guard so an
	// already-deleted id is not reported as missing.
	if _, err := q.GetItemByID(ctx, id); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, softDeleteItem, time.Now().UTC(), id)
	return err
}

const restoreItem = `
UPDATE items
SET deleted_at = NULL
WHERE id = ?
`

// RestoreItem clears the deletion mark on an item.
func (q *Queries) RestoreItem(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, restoreItem, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const listActiveItems = `
SELECT ` + itemColumns + `
FROM items
WHERE deleted_at IS NULL
ORDER BY id
`

// ListActiveItems returns all items that are not soft-deleted, oldest first.
func (q *Queries) ListActiveItems(ctx context.Context) ([]model.Item, error) {
	return q.listItems(ctx, listActiveItems)
}

const listAllItems = `
SELECT ` + itemColumns + `
FROM items
ORDER BY id
`

// ListAllItems returns every item including soft-deleted ones, oldest first.
func (q *Queries) ListAllItems(ctx context.Context) ([]model.Item, error) {
	return q.listItems(ctx, listAllItems)
}

func (q *Queries) listItems(ctx context.Context, query string) ([]model.Item, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
