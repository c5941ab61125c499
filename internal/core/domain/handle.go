package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MinHandleLength is counted in runes after trimming.
const MinHandleLength = 3

// Handle binds a unique username to one account.
type Handle struct {
	Handle    string    `json:"handle"`
	AccountID string    `json:"account_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// NormalizeHandle trims surrounding whitespace and enforces the minimum length.
func NormalizeHandle(raw string) (string, error) {
	h := strings.TrimSpace(raw)
	if utf8.RuneCountInString(h) < MinHandleLength {
		return "", ErrInvalidHandle
	}
	return h, nil
}
