package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/auth"
)

func TestAuthenticate_Password(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	result, err := env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "alice@gmail.com", result.User.Email)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.Token)
	assert.False(t, result.Created)
	assert.True(t, env.clock.Now().Add(168*time.Hour).Equal(result.ExpiresAt))

	session, err := getJSON[model.Session](ctx, env.store, sessionKey(result.SessionID))
	require.NoError(t, err)
	assert.Equal(t, result.Token, session.Token)

	userID, err := env.sessions.Authorize(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.Hex(), userID)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.AuthEvents.WithLabelValues("login_password", "success")))
}

func TestAuthenticate_BadCredentialsAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	_, wrongPassword := env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "wrong-pass"})
	_, unknownEmail := env.sessions.Authenticate(ctx, PasswordCredential{Email: "bob@gmail.com", Password: "secret123"})

	require.ErrorIs(t, wrongPassword, ErrUnauthorized)
	require.ErrorIs(t, unknownEmail, ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticate_PasswordValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Authenticate(ctx, PasswordCredential{Email: "nope", Password: "secret123"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticate_FederatedOnlyAccountRejectsPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Authenticate(ctx, ExternalIdentity{Provider: "google", ID: "g-1", Email: "carol@gmail.com", Name: "Carol"})
	require.NoError(t, err)

	_, err = env.sessions.Authenticate(ctx, PasswordCredential{Email: "carol@gmail.com", Password: "anything1"})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate_ExternalIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	identity := ExternalIdentity{
		Provider: "google",
		ID:       "google-1",
		Name:     "Carol",
		Email:    "Carol@gmail.com",
		Picture:  "https://example.com/carol.png",
	}

	first, err := env.sessions.Authenticate(ctx, identity)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "carol@gmail.com", first.User.Email)
	assert.True(t, first.User.Verified)
	assert.Nil(t, first.User.PasswordHash)
	require.NotNil(t, first.User.Avatar)
	assert.Equal(t, "https://example.com/carol.png", *first.User.Avatar)

	second, err := env.sessions.Authenticate(ctx, identity)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestAuthenticate_ExternalIdentityLinksExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	result, err := env.sessions.Authenticate(ctx, ExternalIdentity{Provider: "google", ID: "google-2", Email: "alice@gmail.com"})
	require.NoError(t, err)
	assert.False(t, result.Created)
	require.NotNil(t, result.User.ExternalID)
	assert.Equal(t, "google-2", *result.User.ExternalID)

	// Both credentials keep working.
	_, err = env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "secret123"})
	require.NoError(t, err)
}

func TestAuthenticate_ExternalIdentityRequiresID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sessions.Authenticate(context.Background(), ExternalIdentity{Provider: "google", Email: "a@gmail.com"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	result, err := env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "secret123"})
	require.NoError(t, err)

	env.clock.Advance(90 * time.Second)

	info, err := env.sessions.GetToken(ctx, result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, result.Token, info.Token)
	assert.Equal(t, int64(604800-90), info.ExpiresIn)
	assert.True(t, result.ExpiresAt.Equal(info.ExpiresAt))
	assert.Equal(t, "Token expires in 6d 23h 58m", info.ExpirationInfo)
}

func TestGetToken_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.GetToken(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.sessions.GetToken(ctx, "missing")
	require.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, putJSON(ctx, env.store, sessionKey("corrupt"), model.Session{Token: "not-a-jwt"}, time.Hour))
	_, err = env.sessions.GetToken(ctx, "corrupt")
	require.ErrorIs(t, err, ErrIntegrity)
}

func TestGetToken_ExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	jwtAuth := auth.NewJWTAuthenticator(env.cfg.Token.Issuer, env.cfg.Token.Issuer, env.clock)
	token, _, err := jwtAuth.IssueUserToken("64b7f0c2a1b2c3d4e5f60718", testSecret, time.Minute)
	require.NoError(t, err)
	require.NoError(t, putJSON(ctx, env.store, sessionKey("old"), model.Session{Token: token}, time.Hour))

	env.clock.Advance(2 * time.Minute)

	_, err = env.sessions.GetToken(ctx, "old")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout_RevokesTokenAndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	result, err := env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, env.sessions.Logout(ctx, result.Token, result.SessionID))

	_, err = env.sessions.Authorize(ctx, result.Token)
	require.ErrorIs(t, err, ErrUnauthorized, "token is rejected although its signature is still valid")

	_, err = env.sessions.GetToken(ctx, result.SessionID)
	require.ErrorIs(t, err, ErrUnauthorized, "session is gone")

	require.NoError(t, env.sessions.Logout(ctx, result.Token, result.SessionID))
}

func TestLogout_LeavesOtherSessionsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")
	creds := PasswordCredential{Email: "alice@gmail.com", Password: "secret123"}

	laptop, err := env.sessions.Authenticate(ctx, creds)
	require.NoError(t, err)
	phone, err := env.sessions.Authenticate(ctx, creds)
	require.NoError(t, err)

	require.NoError(t, env.sessions.Logout(ctx, laptop.Token, phone.SessionID))

	_, err = env.sessions.Authorize(ctx, phone.Token)
	require.NoError(t, err)
	_, err = env.sessions.GetToken(ctx, phone.SessionID)
	require.NoError(t, err, "a cookie of another session is not deleted")
}

func TestLogout_Failures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, env.sessions.Logout(ctx, "", ""), ErrValidation)
	require.ErrorIs(t, env.sessions.Logout(ctx, "garbage", ""), ErrUnauthorized)
}

func TestAuthorize(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.sessions.Authorize(ctx, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.sessions.Authorize(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)

	// A correctly signed token that was never issued through a login has no grant.
	jwtAuth := auth.NewJWTAuthenticator(env.cfg.Token.Issuer, env.cfg.Token.Issuer, env.clock)
	token, _, err := jwtAuth.IssueUserToken("64b7f0c2a1b2c3d4e5f60718", testSecret, time.Hour)
	require.NoError(t, err)
	_, err = env.sessions.Authorize(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthorize_GrantExpiresWithToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	result, err := env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "secret123"})
	require.NoError(t, err)

	env.clock.Advance(168 * time.Hour)

	_, err = env.sessions.Authorize(ctx, result.Token)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.store.Get(ctx, grantKey(result.User.ID.Hex(), result.Token))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGrantKeyHidesToken(t *testing.T) {
	key := grantKey("user-1", "header.payload.signature")

	assert.Contains(t, key, "user:user-1:")
	assert.NotContains(t, key, "signature")
	assert.Equal(t, key, grantKey("user-1", "header.payload.signature"))
	assert.NotEqual(t, key, grantKey("user-1", "other.token.value"))
}

func TestCurrentUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	result, err := env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "secret123"})
	require.NoError(t, err)

	user, err := env.sessions.CurrentUser(ctx, result.User.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)

	_, err = env.sessions.CurrentUser(ctx, "64b7f0c2a1b2c3d4e5f60718")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHumanizeDuration(t *testing.T) {
	assert.Equal(t, "7d 0h 0m", humanizeDuration(168*time.Hour))
	assert.Equal(t, "0d 1h 30m", humanizeDuration(90*time.Minute+59*time.Second))
	assert.Equal(t, "0d 0h 0m", humanizeDuration(-time.Minute))
}
