package models

import "time"

// Session records a login. TokenHash is the SHA-256 of the issued token;
// the raw token is never stored. Sessions are insert-only.
type Session struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
