package usecase

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/security"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

// PasswordResetUsecase defines the two-phase password reset flow: a mailed
// code is confirmed first, then the confirmed code authorizes a new password.
type PasswordResetUsecase interface {
	RequestPasswordReset(ctx context.Context, email string) error
	ResendPasswordReset(ctx context.Context, email string) error
	ConfirmResetCode(ctx context.Context, code string) error
	SetNewPassword(ctx context.Context, params SetNewPasswordParams) error
}

// SetNewPasswordParams defines the parameters for completing a reset.
type SetNewPasswordParams struct {
	Code            string
	Password        string
	ConfirmPassword string
}

type passwordResetUsecase struct {
	userRepo  repository.UserRepository
	store     repository.EphemeralStore
	notifier  Notifier
	validator *validation.Validator
	clock     clockwork.Clock
	generate  CodeGenerator
	cfg       *config.Config
	logger    *zerolog.Logger
}

func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	store repository.EphemeralStore,
	notifier Notifier,
	validator *validation.Validator,
	clock clockwork.Clock,
	cfg *config.Config,
	logger *zerolog.Logger,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:  userRepo,
		store:     store,
		notifier:  notifier,
		validator: validator,
		clock:     clock,
		generate:  RandomCode,
		cfg:       cfg,
		logger:    logger,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := u.validator.Var("email", email, "required,email"); err != nil {
		return validationError(err)
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := u.discardRequest(ctx, email); err != nil {
		return err
	}

	return u.issueCode(ctx, email)
}

func (u *passwordResetUsecase) ResendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := u.validator.Var("email", email, "required,email"); err != nil {
		return validationError(err)
	}

	req, _, err := u.lookupRequest(ctx, email)
	if err != nil {
		return err
	}
	if req == nil {
		// Nothing pending, start over.
		return u.RequestPasswordReset(ctx, email)
	}

	if err := u.discardRequest(ctx, email); err != nil {
		return err
	}

	return u.issueCode(ctx, email)
}

func (u *passwordResetUsecase) ConfirmResetCode(ctx context.Context, rawCode string) error {
	code, ok := parseCode(rawCode)
	if !ok {
		return ErrInvalidCode
	}

	data, err := u.store.Take(ctx, resetCodeKey(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	var req model.PasswordResetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	ticket := model.PasswordResetTicket{Email: req.Email, CreatedAt: u.clock.Now()}
	if err := putJSON(ctx, u.store, resetTicketKey(code), ticket, u.cfg.Verification.ResetTicketTTL); err != nil {
		return err
	}

	if err := u.store.Delete(ctx, resetCodeByEmailKey(req.Email)); err != nil {
		u.logger.Warn().Err(err).Str("email", req.Email).Msg("Failed to delete password reset index")
	}

	return nil
}

func (u *passwordResetUsecase) SetNewPassword(ctx context.Context, params SetNewPasswordParams) error {
	if err := checkPassword("password", params.Password); err != nil {
		return err
	}
	if params.Password != params.ConfirmPassword {
		return validationError(validation.NewError("confirm_password", "confirm_password must be equal to password"))
	}

	code, ok := parseCode(params.Code)
	if !ok {
		return ErrExpired
	}

	data, err := u.store.Take(ctx, resetTicketKey(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExpired
		}
		return err
	}

	var ticket model.PasswordResetTicket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, ticket.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return u.restoreTicket(ctx, code, &ticket, data, err)
	}

	hash, err := security.HashPassword(params.Password)
	if err != nil {
		return u.restoreTicket(ctx, code, &ticket, data, err)
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{PasswordHash: &hash}); err != nil {
		return u.restoreTicket(ctx, code, &ticket, data, err)
	}

	if err := u.notifier.SendPasswordChanged(ctx, user.Email); err != nil {
		u.logger.Error().Err(err).Str("email", user.Email).Msg("Failed to send password changed notice")
	}

	return nil
}

// restoreTicket puts a consumed ticket back after a server failure so the user
// can retry, then returns cause.
func (u *passwordResetUsecase) restoreTicket(
	ctx context.Context,
	code int,
	ticket *model.PasswordResetTicket,
	data []byte,
	cause error,
) error {
	remaining := ticket.CreatedAt.Add(u.cfg.Verification.ResetTicketTTL).Sub(u.clock.Now())
	if err := putBack(ctx, u.store, resetTicketKey(code), data, remaining); err != nil {
		u.logger.Error().Err(err).Str("email", ticket.Email).Msg("Failed to restore password reset ticket")
	}
	return cause
}

func (u *passwordResetUsecase) issueCode(ctx context.Context, email string) error {
	code, err := storeWithFreshCode(
		ctx,
		u.store,
		u.generate,
		resetCodeDigits,
		resetCodeKey,
		resetCodeByEmailKey(email),
		u.cfg.Verification.ResetCodeTTL,
		func(code int) any {
			return model.PasswordResetRequest{Email: email, Code: code, CreatedAt: u.clock.Now()}
		},
		u.ticketExists,
	)
	if err != nil {
		return err
	}

	if err := u.notifier.SendPasswordResetCode(ctx, email, code); err != nil {
		u.logger.Error().Err(err).Str("email", email).Msg("Failed to send password reset code")
	}
	return nil
}

// ticketExists reports whether code is still backing a confirmed reset, in
// which case it cannot be handed out again.
func (u *passwordResetUsecase) ticketExists(ctx context.Context, code int) (bool, error) {
	_, err := u.store.Get(ctx, resetTicketKey(code))
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (u *passwordResetUsecase) lookupRequest(ctx context.Context, email string) (*model.PasswordResetRequest, int, error) {
	code, ok, err := indexedCode(ctx, u.store, resetCodeByEmailKey(email))
	if err != nil || !ok {
		return nil, 0, err
	}

	req, err := getJSON[model.PasswordResetRequest](ctx, u.store, resetCodeKey(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, u.store.Delete(ctx, resetCodeByEmailKey(email))
	}
	if err != nil {
		return nil, 0, err
	}

	if req.Email != email {
		return nil, 0, u.store.Delete(ctx, resetCodeByEmailKey(email))
	}

	return req, code, nil
}

func (u *passwordResetUsecase) discardRequest(ctx context.Context, email string) error {
	req, code, err := u.lookupRequest(ctx, email)
	if err != nil || req == nil {
		return err
	}
	return u.store.Delete(ctx, resetCodeKey(code), resetCodeByEmailKey(email))
}
