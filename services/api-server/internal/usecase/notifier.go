package usecase

import "context"

// Notifier delivers verification codes and account notices to users.
// Implementations may deliver asynchronously, callers treat failures as
// non-fatal.
type Notifier interface {
	SendRegistrationCode(ctx context.Context, email, name string, code int) error
	SendPasswordResetCode(ctx context.Context, email string, code int) error
	SendPasswordChanged(ctx context.Context, email string) error
}
