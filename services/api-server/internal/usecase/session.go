package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/auth"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

// SessionUsecase issues, inspects and revokes bearer tokens.
type SessionUsecase interface {
	Authenticate(ctx context.Context, resolver IdentityResolver) (*AuthResult, error)
	GetToken(ctx context.Context, sessionID string) (*TokenInfo, error)
	Logout(ctx context.Context, token, sessionID string) error
	Authorize(ctx context.Context, token string) (string, error)
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthResult is the outcome of a successful login.
type AuthResult struct {
	User      *model.User
	SessionID string
	Token     string
	ExpiresAt time.Time
	Created   bool
}

// TokenInfo describes the token bound to a session.
type TokenInfo struct {
	Token          string
	ExpiresAt      time.Time
	ExpiresIn      int64
	ExpirationInfo string
}

type sessionUsecase struct {
	userRepo  repository.UserRepository
	store     repository.EphemeralStore
	jwtAuth   auth.JWTAuthenticator
	validator *validation.Validator
	clock     clockwork.Clock
	metrics   *metrics.Metrics
	cfg       *config.Config
	logger    *zerolog.Logger
}

func NewSessionUsecase(
	userRepo repository.UserRepository,
	store repository.EphemeralStore,
	jwtAuth auth.JWTAuthenticator,
	validator *validation.Validator,
	clock clockwork.Clock,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zerolog.Logger,
) SessionUsecase {
	return &sessionUsecase{
		userRepo:  userRepo,
		store:     store,
		jwtAuth:   jwtAuth,
		validator: validator,
		clock:     clock,
		metrics:   m,
		cfg:       cfg,
		logger:    logger,
	}
}

func (u *sessionUsecase) Authenticate(ctx context.Context, resolver IdentityResolver) (*AuthResult, error) {
	event := "login_" + resolver.Method()

	user, created, err := resolver.Resolve(ctx, u.userRepo, u.validator)
	if err != nil {
		u.metrics.AuthEvent(event, err)
		return nil, err
	}

	result, err := u.issue(ctx, user)
	if err != nil {
		u.metrics.AuthEvent(event, err)
		return nil, err
	}
	result.Created = created

	u.metrics.AuthEvent(event, nil)
	return result, nil
}

func (u *sessionUsecase) issue(ctx context.Context, user *model.User) (*AuthResult, error) {
	userID := user.ID.Hex()

	token, expiresAt, err := u.jwtAuth.IssueUserToken(userID, u.cfg.Token.Secret, u.cfg.Token.ExpiresIn)
	if err != nil {
		return nil, err
	}

	now := u.clock.Now()
	sessionID := uuid.NewString()

	session := model.Session{Token: token, CreatedAt: now}
	if err := putJSON(ctx, u.store, sessionKey(sessionID), session, u.cfg.Token.ExpiresIn); err != nil {
		return nil, err
	}

	grant := model.AuthorizationGrant{UserID: userID, CreatedAt: now, ExpiresAt: expiresAt}
	if err := putJSON(ctx, u.store, grantKey(userID, token), grant, expiresAt.Sub(now)); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:      user,
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (u *sessionUsecase) GetToken(ctx context.Context, sessionID string) (*TokenInfo, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}

	session, err := getJSON[model.Session](ctx, u.store, sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	claims, err := u.jwtAuth.ParseUserToken(session.Token, u.cfg.Token.Secret)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %w", ErrIntegrity, err)
	}
	if claims.ExpiresAt == nil {
		return nil, ErrIntegrity
	}

	expiresAt := claims.ExpiresAt.Time
	remaining := expiresAt.Sub(u.clock.Now())

	return &TokenInfo{
		Token:          session.Token,
		ExpiresAt:      expiresAt,
		ExpiresIn:      int64(remaining / time.Second),
		ExpirationInfo: "Token expires in " + humanizeDuration(remaining),
	}, nil
}

// Logout revokes token. Revoking a token that is already revoked or expired
// succeeds.
func (u *sessionUsecase) Logout(ctx context.Context, token, sessionID string) error {
	if token == "" {
		return validationError(validation.NewError("token", "bearer token is required"))
	}

	claims, err := u.jwtAuth.ParseUserToken(token, u.cfg.Token.Secret)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		u.metrics.AuthEvent("logout", nil)
		return nil
	case err != nil:
		u.metrics.AuthEvent("logout", err)
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	keys := []string{grantKey(claims.UserID, token)}
	if sessionID != "" {
		session, err := getJSON[model.Session](ctx, u.store, sessionKey(sessionID))
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if session != nil && session.Token == token {
			keys = append(keys, sessionKey(sessionID))
		}
	}

	if err := u.store.Delete(ctx, keys...); err != nil {
		u.metrics.AuthEvent("logout", err)
		return err
	}

	u.metrics.AuthEvent("logout", nil)
	return nil
}

// Authorize checks the token signature and then the live grant, returning the
// user id the token was issued to.
func (u *sessionUsecase) Authorize(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}

	claims, err := u.jwtAuth.ParseUserToken(token, u.cfg.Token.Secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	if _, err := u.store.Get(ctx, grantKey(claims.UserID, token)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: token has been revoked", ErrUnauthorized)
		}
		return "", err
	}

	return claims.UserID, nil
}

func (u *sessionUsecase) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrInvalidID) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// humanizeDuration renders d as "6d 23h 59m".
func humanizeDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Minute)

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}
