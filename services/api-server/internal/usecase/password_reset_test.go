package usecase

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
)

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	err := env.reset.RequestPasswordReset(context.Background(), "ghost@gmail.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequestPasswordReset_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	err := env.reset.RequestPasswordReset(context.Background(), "not-an-email")
	require.ErrorIs(t, err, ErrValidation)
}

func TestPasswordReset_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "alice@gmail.com"))
	code := env.notifier.resetCode("alice@gmail.com")
	assert.GreaterOrEqual(t, code, 1000)
	assert.LessOrEqual(t, code, 9999)

	require.NoError(t, env.reset.ConfirmResetCode(ctx, strconv.Itoa(code)))

	_, err := env.store.Get(ctx, resetCodeKey(code))
	require.ErrorIs(t, err, repository.ErrNotFound, "phase one record is replaced by the ticket")

	require.NoError(t, env.reset.SetNewPassword(ctx, SetNewPasswordParams{
		Code:            strconv.Itoa(code),
		Password:        "newsecret456",
		ConfirmPassword: "newsecret456",
	}))
	assert.Equal(t, []string{"alice@gmail.com"}, env.notifier.changed)

	_, err = env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "newsecret456"})
	require.NoError(t, err)

	_, err = env.sessions.Authenticate(ctx, PasswordCredential{Email: "alice@gmail.com", Password: "secret123"})
	require.ErrorIs(t, err, ErrUnauthorized)

	// The ticket is consumed.
	err = env.reset.SetNewPassword(ctx, SetNewPasswordParams{
		Code:            strconv.Itoa(code),
		Password:        "another789",
		ConfirmPassword: "another789",
	})
	require.ErrorIs(t, err, ErrExpired)
}

func TestConfirmResetCode_Invalid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.ErrorIs(t, env.reset.ConfirmResetCode(ctx, "1234"), ErrInvalidCode)
	require.ErrorIs(t, env.reset.ConfirmResetCode(ctx, "x"), ErrInvalidCode)
}

func TestConfirmResetCode_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "alice@gmail.com"))
	code := env.notifier.resetCode("alice@gmail.com")

	env.clock.Advance(120 * time.Second)
	require.ErrorIs(t, env.reset.ConfirmResetCode(ctx, strconv.Itoa(code)), ErrInvalidCode)
}

func TestSetNewPassword_TicketExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "alice@gmail.com"))
	code := strconv.Itoa(env.notifier.resetCode("alice@gmail.com"))
	require.NoError(t, env.reset.ConfirmResetCode(ctx, code))

	env.clock.Advance(1200 * time.Second)

	err := env.reset.SetNewPassword(ctx, SetNewPasswordParams{
		Code:            code,
		Password:        "newsecret456",
		ConfirmPassword: "newsecret456",
	})
	require.ErrorIs(t, err, ErrExpired)
}

func TestSetNewPassword_ConcurrentUseConsumesTicketOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "alice@gmail.com"))
	code := strconv.Itoa(env.notifier.resetCode("alice@gmail.com"))
	require.NoError(t, env.reset.ConfirmResetCode(ctx, code))

	passwords := []string{"first-choice1", "second-choice2"}
	errs := make([]error, len(passwords))

	var wg sync.WaitGroup
	for i, password := range passwords {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = env.reset.SetNewPassword(ctx, SetNewPasswordParams{
				Code:            code,
				Password:        password,
				ConfirmPassword: password,
			})
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrExpired)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, env.notifier.changed, 1)
}

func TestSetNewPassword_UserStoreFailureKeepsTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "alice@gmail.com"))
	code := strconv.Itoa(env.notifier.resetCode("alice@gmail.com"))
	require.NoError(t, env.reset.ConfirmResetCode(ctx, code))

	users := &failingUsers{UserRepository: env.users, updateErr: errStoreDown}
	env.reset.userRepo = users

	params := SetNewPasswordParams{Code: code, Password: "newsecret456", ConfirmPassword: "newsecret456"}
	require.ErrorIs(t, env.reset.SetNewPassword(ctx, params), errStoreDown)

	users.updateErr = nil
	require.NoError(t, env.reset.SetNewPassword(ctx, params))
	require.ErrorIs(t, env.reset.SetNewPassword(ctx, params), ErrExpired)
}

func TestSetNewPassword_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.reset.SetNewPassword(ctx, SetNewPasswordParams{Code: "1234", Password: "short", ConfirmPassword: "short"})
	require.ErrorIs(t, err, ErrValidation)

	err = env.reset.SetNewPassword(ctx, SetNewPasswordParams{Code: "1234", Password: "newsecret456", ConfirmPassword: "different1"})
	require.ErrorIs(t, err, ErrValidation)

	err = env.reset.SetNewPassword(ctx, SetNewPasswordParams{Code: "1234", Password: "newsecret456", ConfirmPassword: "newsecret456"})
	require.ErrorIs(t, err, ErrExpired, "no ticket exists for the code")
}

func TestResendPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	env.reset.generate = sequenceCodes(1111, 2222)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "alice@gmail.com"))
	require.NoError(t, env.reset.ResendPasswordReset(ctx, "alice@gmail.com"))
	assert.Equal(t, 2222, env.notifier.resetCode("alice@gmail.com"))

	require.ErrorIs(t, env.reset.ConfirmResetCode(ctx, "1111"), ErrInvalidCode)
	require.NoError(t, env.reset.ConfirmResetCode(ctx, "2222"))
}

func TestResendPasswordReset_WithoutPendingStartsOver(t *testing.T) {
	env := newTestEnv(t)
	env.reset.generate = sequenceCodes(3333)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")

	require.NoError(t, env.reset.ResendPasswordReset(ctx, "alice@gmail.com"))
	assert.Equal(t, 3333, env.notifier.resetCode("alice@gmail.com"))

	require.ErrorIs(t, env.reset.ResendPasswordReset(ctx, "ghost@gmail.com"), ErrNotFound)
}

func TestRequestPasswordReset_SkipsCodesBackingTickets(t *testing.T) {
	env := newTestEnv(t)
	env.reset.generate = sequenceCodes(5555, 5555, 6666)
	ctx := context.Background()
	env.register(t, "Alice", "alice@gmail.com", "secret123")
	env.register(t, "Bob", "bob@gmail.com", "secret123")

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "alice@gmail.com"))
	require.NoError(t, env.reset.ConfirmResetCode(ctx, "5555"))

	require.NoError(t, env.reset.RequestPasswordReset(ctx, "bob@gmail.com"))
	assert.Equal(t, 6666, env.notifier.resetCode("bob@gmail.com"))
}
