package model

import "time"

// Session links an opaque cookie value to an issued bearer token.
type Session struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorizationGrant marks a bearer token as currently honored.
type AuthorizationGrant struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
