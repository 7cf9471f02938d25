package model

import "time"

// PendingRegistration is a registration waiting for its email code.
type PendingRegistration struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash *string   `json:"password_hash,omitempty"`
	ExternalID   *string   `json:"external_id,omitempty"`
	Code         int       `json:"code"`
	CreatedAt    time.Time `json:"created_at"`
}

// PasswordResetRequest is the first phase of a password reset: a code was
// mailed to Email and has not been confirmed yet.
type PasswordResetRequest struct {
	Email     string    `json:"email"`
	Code      int       `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetTicket is the second phase of a password reset: the code was
// confirmed and a new password may be set.
type PasswordResetTicket struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
