package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/auth"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type recordingNotifier struct {
	mu           sync.Mutex
	registration map[string]int
	reset        map[string]int
	changed      []string
	err          error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{registration: map[string]int{}, reset: map[string]int{}}
}

func (n *recordingNotifier) SendRegistrationCode(_ context.Context, email, _ string, code int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registration[email] = code
	return n.err
}

func (n *recordingNotifier) SendPasswordResetCode(_ context.Context, email string, code int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset[email] = code
	return n.err
}

func (n *recordingNotifier) SendPasswordChanged(_ context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, email)
	return n.err
}

func (n *recordingNotifier) registrationCode(email string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.registration[email]
}

func (n *recordingNotifier) resetCode(email string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.reset[email]
}

type testEnv struct {
	clock    *clockwork.FakeClock
	cfg      *config.Config
	users    repository.UserRepository
	store    repository.EphemeralStore
	notifier *recordingNotifier
	metrics  *metrics.Metrics

	registration *registrationUsecase
	reset        *passwordResetUsecase
	sessions     *sessionUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
	cfg := &config.Config{
		Token: config.TokenConfig{
			Secret:    testSecret,
			Issuer:    "dailycollege",
			ExpiresIn: 168 * time.Hour,
		},
		Verification: config.VerificationConfig{
			AllowedEmailDomains: []string{"gmail.com"},
			RegistrationCodeTTL: 120 * time.Second,
			ResetCodeTTL:        120 * time.Second,
			ResetTicketTTL:      1200 * time.Second,
		},
	}
	logger := zerolog.Nop()
	users := repository.NewUserMemoryRepository()
	store := repository.NewEphemeralMemoryStore(clock)
	notifier := newRecordingNotifier()
	v := validation.New()
	m := metrics.New("test")

	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer, clock)

	return &testEnv{
		clock:        clock,
		cfg:          cfg,
		users:        users,
		store:        store,
		notifier:     notifier,
		metrics:      m,
		registration: NewRegistrationUsecase(users, store, notifier, v, clock, cfg, &logger).(*registrationUsecase),
		reset:        NewPasswordResetUsecase(users, store, notifier, v, clock, cfg, &logger).(*passwordResetUsecase),
		sessions:     NewSessionUsecase(users, store, jwtAuth, v, clock, m, cfg, &logger).(*sessionUsecase),
	}
}

// register runs the whole sign-up flow for email.
func (e *testEnv) register(t *testing.T, name, email, password string) {
	t.Helper()

	ctx := context.Background()
	if err := e.registration.RequestRegistration(ctx, RegisterParams{Name: name, Email: email, Password: password}); err != nil {
		t.Fatalf("request registration: %v", err)
	}
	code := e.notifier.registrationCode(email)
	if _, err := e.registration.VerifyRegistration(ctx, strconv.Itoa(code)); err != nil {
		t.Fatalf("verify registration: %v", err)
	}
}

// sequenceCodes returns a generator that hands out codes in order.
func sequenceCodes(codes ...int) CodeGenerator {
	var mu sync.Mutex
	return func(int) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(codes) == 0 {
			return 0, errors.New("out of codes")
		}
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}
}

// failingUsers fails writes with the configured errors and delegates the rest.
type failingUsers struct {
	repository.UserRepository
	createErr error
	updateErr error
}

func (f *failingUsers) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.UserRepository.CreateUser(ctx, user)
}

func (f *failingUsers) UpdateUser(ctx context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.UserRepository.UpdateUser(ctx, id, params)
}

var errStoreDown = errors.New("store down")
