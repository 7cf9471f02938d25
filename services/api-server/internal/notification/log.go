package notification

import (
	"context"

	"github.com/rs/zerolog"
)

// LogNotifier writes notices to the log instead of mailing them. It is used
// when the mailer is disabled, typically in development.
type LogNotifier struct {
	logger *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendRegistrationCode(_ context.Context, email, name string, code int) error {
	n.logger.Info().Str("email", email).Str("name", name).Int("code", code).Msg("Registration code issued")
	return nil
}

func (n *LogNotifier) SendPasswordResetCode(_ context.Context, email string, code int) error {
	n.logger.Info().Str("email", email).Int("code", code).Msg("Password reset code issued")
	return nil
}

func (n *LogNotifier) SendPasswordChanged(_ context.Context, email string) error {
	n.logger.Info().Str("email", email).Msg("Password changed")
	return nil
}
