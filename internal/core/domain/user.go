package domain

import (
	"strings"
	"time"
)

// User models a registered account. Email is matched exactly
// (case-sensitive); Username is always stored in normalized form, see
// NormalizeUsername.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeUsername derives the stored username from a display name:
// trimmed, lower-cased, internal whitespace runs collapsed to a single
// hyphen. "  Alice   Smith " becomes "alice-smith".
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
