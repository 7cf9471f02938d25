package usecase

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("user already exists")
	ErrNotFound     = errors.New("not found")
	ErrInvalidCode  = errors.New("invalid or expired verification code")
	ErrExpired      = errors.New("password reset session has expired")
	ErrUnauthorized = errors.New("unauthorized")
	ErrIntegrity    = errors.New("stored token is corrupt")
)

// validationError marks err, usually a *validation.Error, as a validation failure.
func validationError(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
