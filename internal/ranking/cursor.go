// Vidfeed - Personalized Video Feed Delivery
// Copyright 2026 Vidfeed Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vidfeed/vidfeed

package ranking

import (
	"encoding/base64"

	json "github.com/goccy/go-json"
)

// cursorPayload is the decoded pagination cursor. The cursor is opaque
// to clients: base64 of a JSON object carrying the offset.
type cursorPayload struct {
	Offset int `json:"offset"`
}

// DecodeCursor converts a pagination cursor back to an offset. Invalid
// or corrupted cursors decode to offset 0 (the first page), never an
// error: a bad cursor must not fail the request.
func DecodeCursor(cursor string) int {
	if cursor == "" {
		return 0
	}

	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0
	}
	if payload.Offset < 0 {
		return 0
	}
	return payload.Offset
}

// EncodeCursor converts an offset to an opaque pagination cursor.
func EncodeCursor(offset int) string {
	raw, err := json.Marshal(cursorPayload{Offset: offset})
	if err != nil {
		// Marshaling a struct of one int cannot fail.
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}
