// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"
)

// PictureDelimiter separates picture references in form input.
const PictureDelimiter = ","

// LocalizedText is a pair of default-language and localized text.
type LocalizedText struct {
	En        string `json:"en"`
	Localized string `json:"localized"`
}

// Item represents a catalog entry. An item is active while DeletedAt is nil;
// soft deletion sets the timestamp instead of removing the record.
type Item struct {
	ID          int64         `json:"id"`
	Pictures    []string      `json:"pictures"`
	Name        LocalizedText `json:"name"`
	Description LocalizedText `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty"`
}

// IsActive returns true if the item has not been soft-deleted.
func (i *Item) IsActive() bool {
	return i.DeletedAt == nil
}

// SplitPictures parses a delimited picture reference string into an ordered
// slice. Entries are trimmed and empty entries dropped.
func SplitPictures(raw string) []string {
	var pictures []string
	for _, p := range strings.Split(raw, PictureDelimiter) {
		p = strings.TrimSpace(p)
		if p != "" {
			pictures = append(pictures, p)
		}
	}
	return pictures
}

// EncodePictures serializes a picture list for storage as a JSON array string.
func EncodePictures(pictures []string) string {
	if len(pictures) == 0 {
		return "[]"
	}
	data, err := json.Marshal(pictures)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodePictures parses a stored JSON array string back into a picture list.
// Malformed input yields an empty list rather than an error; the stored value
// is always produced by EncodePictures.
func DecodePictures(stored string) []string {
	if stored == "" || stored == "[]" {
		return nil
	}
	var pictures []string
	_ = json.Unmarshal([]byte(stored), &pictures)
	return pictures
}
