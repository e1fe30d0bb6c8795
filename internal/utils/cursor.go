package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageCursor marks the last item of a page in (timestamp desc, id desc) order.
type PageCursor struct {
	Timestamp time.Time `json:"ts"`
	ID        string    `json:"id"`
}

func EncodeCursor(ts time.Time, id string) (string, error) {
	b, err := json.Marshal(PageCursor{Timestamp: ts.UTC(), ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(cursor string) (PageCursor, error) {
	if cursor == "" {
		return PageCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return PageCursor{}, err
	}

	var c PageCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return PageCursor{}, err
	}
	if c.ID == "" || c.Timestamp.IsZero() {
		return PageCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}

// ParseLimit clamps a ?limit= value into [1, MaxPageLimit].
func ParseLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultPageLimit, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > MaxPageLimit {
		n = MaxPageLimit
	}
	return n, nil
}
