package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/security"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

// IdentityResolver turns proof of identity into a user account. Password
// logins and federated logins both end in the same token issuance.
type IdentityResolver interface {
	// Method names the login method for metrics and logs.
	Method() string

	// Resolve returns the user the proof belongs to and whether the account
	// was created by this call.
	Resolve(ctx context.Context, users repository.UserRepository, v *validation.Validator) (*model.User, bool, error)
}

// PasswordCredential is an email and password pair.
type PasswordCredential struct {
	Email    string
	Password string
}

func (c PasswordCredential) Method() string { return "password" }

func (c PasswordCredential) Resolve(
	ctx context.Context,
	users repository.UserRepository,
	v *validation.Validator,
) (*model.User, bool, error) {
	email := normalizeEmail(c.Email)
	if err := v.Var("email", email, "required,email"); err != nil {
		return nil, false, validationError(err)
	}
	if c.Password == "" {
		return nil, false, validationError(validation.NewError("password", "password is a required field"))
	}

	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, ErrUnauthorized
		}
		return nil, false, err
	}

	// Federated-only accounts have no password to compare against.
	if user.PasswordHash == nil {
		return nil, false, ErrUnauthorized
	}

	ok, err := security.VerifyPassword(c.Password, *user.PasswordHash)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, ErrUnauthorized
	}

	return user, false, nil
}

// ExternalIdentity is a profile vouched for by an external identity provider.
type ExternalIdentity struct {
	Provider string
	ID       string
	Name     string
	Email    string
	Picture  string
}

func (e ExternalIdentity) Method() string { return e.Provider }

// Resolve finds the account by external id, then links an existing account
// with the same email, and finally creates a verified account.
func (e ExternalIdentity) Resolve(
	ctx context.Context,
	users repository.UserRepository,
	v *validation.Validator,
) (*model.User, bool, error) {
	if e.ID == "" {
		return nil, false, validationError(validation.NewError("id", "id is a required field"))
	}

	user, err := users.GetUserByExternalID(ctx, e.ID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	email := normalizeEmail(e.Email)
	if err := v.Var("email", email, "required,email"); err != nil {
		return nil, false, validationError(err)
	}

	user, err = users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		params := repository.UpdateUserParams{ExternalID: &e.ID, Verified: boolPtr(true)}
		if user.Avatar == nil && e.Picture != "" {
			params.Avatar = &e.Picture
		}
		user, err = users.UpdateUser(ctx, user.ID.Hex(), params)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}

	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = email[:strings.LastIndex(email, "@")]
	}

	newUser := &model.User{
		Name:       name,
		Email:      email,
		ExternalID: &e.ID,
		Verified:   true,
	}
	if e.Picture != "" {
		newUser.Avatar = &e.Picture
	}

	user, err = users.CreateUser(ctx, newUser)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, false, ErrConflict
		}
		return nil, false, err
	}

	return user, true, nil
}

func boolPtr(b bool) *bool { return &b }
