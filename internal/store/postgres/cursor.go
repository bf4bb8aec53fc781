package postgres

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// cursor is the decoded pagination position: the (created_at, id) tuple of
// the last event on the previous page. The encoding is owned by the store;
// clients must treat the token as opaque so stability stays a server-side
// concern.
type cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        string    `json:"id"`
}

func encodeCursor(c cursor) string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(token string) (cursor, error) {
	var c cursor
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("decoding cursor: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing cursor: %w", err)
	}
	if c.CreatedAt.IsZero() || c.ID == "" {
		return c, fmt.Errorf("cursor missing position fields")
	}
	return c, nil
}
