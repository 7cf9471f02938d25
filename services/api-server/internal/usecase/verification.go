package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

const (
	pendingRegistrationPrefix = "userData:"
	pendingByEmailPrefix      = "userDataByEmail:"
	resetCodePrefix           = "id_reset_passcode:"
	resetCodeByEmailPrefix    = "id_reset_passcode_by_email:"
	resetTicketPrefix         = "verif_reset_passcode:"
	sessionPrefix             = "session:"
	grantPrefix               = "user:"

	registrationCodeDigits = 5
	resetCodeDigits        = 4
	maxCodeAttempts        = 10
	minPasswordLength      = 8
)

var errCodeSpaceExhausted = errors.New("could not allocate a free verification code")

func pendingRegistrationKey(code int) string { return pendingRegistrationPrefix + strconv.Itoa(code) }
func pendingByEmailKey(email string) string  { return pendingByEmailPrefix + email }
func resetCodeKey(code int) string           { return resetCodePrefix + strconv.Itoa(code) }
func resetCodeByEmailKey(email string) string {
	return resetCodeByEmailPrefix + email
}
func resetTicketKey(code int) string     { return resetTicketPrefix + strconv.Itoa(code) }
func sessionKey(sessionID string) string { return sessionPrefix + sessionID }

// grantKey addresses the authorization grant of token. Only a digest of the
// token is used so bearer tokens never appear in key material.
func grantKey(userID, token string) string {
	sum := blake3.Sum256([]byte(token))
	return grantPrefix + userID + ":" + hex.EncodeToString(sum[:])
}

// CodeGenerator returns a random code with the given number of digits.
type CodeGenerator func(digits int) (int, error)

// RandomCode draws a code uniformly from [10^(digits-1), 10^digits).
func RandomCode(digits int) (int, error) {
	low := int64(1)
	for i := 1; i < digits; i++ {
		low *= 10
	}

	n, err := rand.Int(rand.Reader, big.NewInt(9*low))
	if err != nil {
		return 0, err
	}

	return int(low + n.Int64()), nil
}

// parseCode accepts codes sent as strings or numbers and normalizes them.
func parseCode(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	code, err := strconv.Atoi(raw)
	if err != nil || code <= 0 {
		return 0, false
	}
	return code, true
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}

func checkPassword(field, password string) error {
	if password == "" {
		return validationError(validation.NewError(field, field+" is a required field"))
	}
	if len(password) < minPasswordLength {
		return validationError(validation.NewError(
			field,
			field+" must be at least "+strconv.Itoa(minPasswordLength)+" characters in length",
		))
	}
	return nil
}

func putJSON(ctx context.Context, store repository.EphemeralStore, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, data, ttl)
}

// putBack returns a consumed record to the store for what is left of its
// lifetime. A record past its lifetime stays gone.
func putBack(ctx context.Context, store repository.EphemeralStore, key string, data []byte, remaining time.Duration) error {
	if remaining <= 0 {
		return nil
	}
	_, err := store.SetIfAbsent(ctx, key, data, remaining)
	return err
}

func getJSON[T any](ctx context.Context, store repository.EphemeralStore, key string) (*T, error) {
	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// storeWithFreshCode stores the record built by build under a newly drawn code
// that is not in use, plus an email index pointing at that code.
func storeWithFreshCode(
	ctx context.Context,
	store repository.EphemeralStore,
	generate CodeGenerator,
	digits int,
	key func(int) string,
	indexKey string,
	ttl time.Duration,
	build func(code int) any,
	inUse func(ctx context.Context, code int) (bool, error),
) (int, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generate(digits)
		if err != nil {
			return 0, err
		}

		if inUse != nil {
			busy, err := inUse(ctx, code)
			if err != nil {
				return 0, err
			}
			if busy {
				continue
			}
		}

		data, err := json.Marshal(build(code))
		if err != nil {
			return 0, err
		}

		stored, err := store.SetIfAbsent(ctx, key(code), data, ttl)
		if err != nil {
			return 0, err
		}
		if !stored {
			continue
		}

		if err := store.Set(ctx, indexKey, []byte(strconv.Itoa(code)), ttl); err != nil {
			return 0, err
		}
		return code, nil
	}

	return 0, errCodeSpaceExhausted
}

// indexedCode follows an email index to the code it points at.
func indexedCode(ctx context.Context, store repository.EphemeralStore, indexKey string) (int, bool, error) {
	data, err := store.Get(ctx, indexKey)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	code, ok := parseCode(string(data))
	if !ok {
		return 0, false, store.Delete(ctx, indexKey)
	}
	return code, true, nil
}
