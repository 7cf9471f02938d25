package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/security"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

// RegistrationUsecase defines the email-verified sign-up flow.
type RegistrationUsecase interface {
	RequestRegistration(ctx context.Context, params RegisterParams) error
	ResendRegistration(ctx context.Context, email string) error
	VerifyRegistration(ctx context.Context, code string) (*model.User, error)
}

// RegisterParams defines the parameters for starting a registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

type registrationUsecase struct {
	userRepo  repository.UserRepository
	store     repository.EphemeralStore
	notifier  Notifier
	validator *validation.Validator
	clock     clockwork.Clock
	generate  CodeGenerator
	cfg       *config.Config
	logger    *zerolog.Logger
}

func NewRegistrationUsecase(
	userRepo repository.UserRepository,
	store repository.EphemeralStore,
	notifier Notifier,
	validator *validation.Validator,
	clock clockwork.Clock,
	cfg *config.Config,
	logger *zerolog.Logger,
) RegistrationUsecase {
	return &registrationUsecase{
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

func (u *registrationUsecase) RequestRegistration(ctx context.Context, params RegisterParams) error {
	email := normalizeEmail(params.Email)
	name := strings.TrimSpace(params.Name)

	if name == "" {
		return validationError(validation.NewError("name", "name is a required field"))
	}
	if err := u.checkEmail(email); err != nil {
		return err
	}
	if err := checkPassword("password", params.Password); err != nil {
		return err
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		return ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(params.Password)
	if err != nil {
		return err
	}

	// A newer request for the same email replaces the pending one.
	if err := u.discardPending(ctx, email); err != nil {
		return err
	}

	pending := model.PendingRegistration{
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		CreatedAt:    u.clock.Now(),
	}

	code, err := u.storePending(ctx, pending)
	if err != nil {
		return err
	}

	u.notify(ctx, email, name, code)
	return nil
}

func (u *registrationUsecase) ResendRegistration(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := u.validator.Var("email", email, "required,email"); err != nil {
		return validationError(err)
	}

	pending, oldCode, err := u.lookupPending(ctx, email)
	if err != nil {
		return err
	}
	if pending == nil {
		return ErrNotFound
	}

	if err := u.store.Delete(ctx, pendingRegistrationKey(oldCode), pendingByEmailKey(email)); err != nil {
		return err
	}

	code, err := u.storePending(ctx, *pending)
	if err != nil {
		return err
	}

	u.notify(ctx, email, pending.Name, code)
	return nil
}

func (u *registrationUsecase) VerifyRegistration(ctx context.Context, rawCode string) (*model.User, error) {
	code, ok := parseCode(rawCode)
	if !ok {
		return nil, ErrInvalidCode
	}

	data, err := u.store.Take(ctx, pendingRegistrationKey(code))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, err
	}

	var pending model.PendingRegistration
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         pending.Name,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		ExternalID:   pending.ExternalID,
		Verified:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			u.dropPendingIndex(ctx, pending.Email)
			return nil, ErrConflict
		}

		// The code stays usable when the user store fails.
		remaining := pending.CreatedAt.Add(u.cfg.Verification.RegistrationCodeTTL).Sub(u.clock.Now())
		if restoreErr := putBack(ctx, u.store, pendingRegistrationKey(code), data, remaining); restoreErr != nil {
			u.logger.Error().Err(restoreErr).Str("email", pending.Email).Msg("Failed to restore pending registration")
		}
		return nil, err
	}

	u.dropPendingIndex(ctx, pending.Email)

	return user, nil
}

func (u *registrationUsecase) dropPendingIndex(ctx context.Context, email string) {
	if err := u.store.Delete(ctx, pendingByEmailKey(email)); err != nil {
		u.logger.Warn().Err(err).Str("email", email).Msg("Failed to delete pending registration index")
	}
}

func (u *registrationUsecase) checkEmail(email string) error {
	if err := u.validator.Var("email", email, "required,email"); err != nil {
		return validationError(err)
	}

	if !slices.Contains(u.cfg.Verification.AllowedEmailDomains, emailDomain(email)) {
		return validationError(validation.NewError(
			"email",
			"email must use one of the allowed domains: "+strings.Join(u.cfg.Verification.AllowedEmailDomains, ", "),
		))
	}

	return nil
}

// lookupPending returns the live pending registration for email and its code,
// or nil when there is none.
func (u *registrationUsecase) lookupPending(ctx context.Context, email string) (*model.PendingRegistration, int, error) {
	code, ok, err := indexedCode(ctx, u.store, pendingByEmailKey(email))
	if err != nil || !ok {
		return nil, 0, err
	}

	pending, err := getJSON[model.PendingRegistration](ctx, u.store, pendingRegistrationKey(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, 0, u.store.Delete(ctx, pendingByEmailKey(email))
	}
	if err != nil {
		return nil, 0, err
	}

	// The code may have been reused by another email after the record expired.
	if pending.Email != email {
		return nil, 0, u.store.Delete(ctx, pendingByEmailKey(email))
	}

	return pending, code, nil
}

func (u *registrationUsecase) discardPending(ctx context.Context, email string) error {
	pending, code, err := u.lookupPending(ctx, email)
	if err != nil || pending == nil {
		return err
	}
	return u.store.Delete(ctx, pendingRegistrationKey(code), pendingByEmailKey(email))
}

func (u *registrationUsecase) storePending(ctx context.Context, pending model.PendingRegistration) (int, error) {
	return storeWithFreshCode(
		ctx,
		u.store,
		u.generate,
		registrationCodeDigits,
		pendingRegistrationKey,
		pendingByEmailKey(pending.Email),
		u.cfg.Verification.RegistrationCodeTTL,
		func(code int) any {
			pending.Code = code
			pending.CreatedAt = u.clock.Now()
			return pending
		},
		nil,
	)
}

func (u *registrationUsecase) notify(ctx context.Context, email, name string, code int) {
	if err := u.notifier.SendRegistrationCode(ctx, email, name, code); err != nil {
		u.logger.Error().Err(err).Str("email", email).Msg("Failed to send registration code")
	}
}
