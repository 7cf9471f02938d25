package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/repository"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/auth"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/provider"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

type codeNotifier struct {
	mu    sync.Mutex
	codes map[string]int
}

func (n *codeNotifier) SendRegistrationCode(_ context.Context, email, _ string, code int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes["register:"+email] = code
	return nil
}

func (n *codeNotifier) SendPasswordResetCode(_ context.Context, email string, code int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes["reset:"+email] = code
	return nil
}

func (n *codeNotifier) SendPasswordChanged(context.Context, string) error { return nil }

func (n *codeNotifier) code(kind, email string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[kind+":"+email]
}

type fakeGoogle struct {
	profile *provider.GoogleProfile
	err     error
}

func (g *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (g *fakeGoogle) Exchange(context.Context, string) (*provider.GoogleProfile, error) {
	return g.profile, g.err
}

func (g *fakeGoogle) ValidateIDToken(context.Context, string) (*provider.GoogleProfile, error) {
	return g.profile, g.err
}

type testServer struct {
	handler  http.Handler
	clock    *clockwork.FakeClock
	notifier *codeNotifier
	google   *fakeGoogle
	store    repository.EphemeralStore
	health   error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
	cfg := &config.Config{
		Token: config.TokenConfig{
			Secret:              "0123456789abcdef0123456789abcdef",
			Issuer:              "dailycollege",
			ExpiresIn:           168 * time.Hour,
			SessionCookieMaxAge: 24 * time.Hour,
		},
		Verification: config.VerificationConfig{
			AllowedEmailDomains: []string{"gmail.com"},
			RegistrationCodeTTL: 120 * time.Second,
			ResetCodeTTL:        120 * time.Second,
			ResetTicketTTL:      1200 * time.Second,
		},
		Google:    config.GoogleConfig{FailureRedirectURL: "/login?error=google"},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}

	logger := zerolog.Nop()
	v := validation.New()
	m := metrics.New("test")
	users := repository.NewUserMemoryRepository()
	store := repository.NewEphemeralMemoryStore(clock)
	colorRepo := repository.NewColorMemoryRepository()
	require.NoError(t, repository.SeedColors(context.Background(), colorRepo))
	transactions := repository.NewOwnedMemoryRepository[model.Transaction]()
	notifier := &codeNotifier{codes: map[string]int{}}
	google := &fakeGoogle{}
	jwtAuth := auth.NewJWTAuthenticator(cfg.Token.Issuer, cfg.Token.Issuer, clock)

	s := &testServer{clock: clock, notifier: notifier, google: google, store: store}
	s.handler = NewRouter(Dependencies{
		Config:        cfg,
		Logger:        &logger,
		Metrics:       m,
		Validator:     v,
		Clock:         clock,
		Registration:  usecase.NewRegistrationUsecase(users, store, notifier, v, clock, cfg, &logger),
		PasswordReset: usecase.NewPasswordResetUsecase(users, store, notifier, v, clock, cfg, &logger),
		Sessions:      usecase.NewSessionUsecase(users, store, jwtAuth, v, clock, m, cfg, &logger),
		Colors:        usecase.NewColorUsecase(colorRepo, usecase.NewColorCache(clock, time.Minute)),
		Finance:       usecase.NewFinanceUsecase(transactions),
		Tasks:         usecase.NewResourceUsecase(repository.NewOwnedMemoryRepository[model.Task](), v),
		Events:        usecase.NewResourceUsecase(repository.NewOwnedMemoryRepository[model.Event](), v),
		Schedules:     usecase.NewResourceUsecase(repository.NewOwnedMemoryRepository[model.Schedule](), v),
		Activities:    usecase.NewResourceUsecase(repository.NewOwnedMemoryRepository[model.Activity](), v),
		Transactions:  usecase.NewResourceUsecase(transactions, v),
		Google:        google,
		HealthCheck: func(context.Context) error {
			return s.health
		},
	})

	return s
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookie(c *http.Cookie) requestOption {
	return func(r *http.Request) { r.AddCookie(c) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

type testEnvelope struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var env testEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &v), rr.Body.String())
	return v
}

func sessionCookie(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

type loginData struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	IsNewUser bool `json:"is_new_user"`
}

// signUp registers and verifies an account.
func (s *testServer) signUp(t *testing.T, name, email, password string) {
	t.Helper()

	rr := s.do(t, http.MethodPost, "/auth/register", map[string]string{"name": name, "email": email, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	code := s.notifier.code("register", email)
	rr = s.do(t, http.MethodPost, "/auth/verify", `{"verificationCode": `+strconv.Itoa(code)+`}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

// logIn returns the bearer token and session cookie of a fresh login.
func (s *testServer) logIn(t *testing.T, email, password string) (string, *http.Cookie) {
	t.Helper()

	rr := s.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	cookie := sessionCookie(rr)
	require.NotNil(t, cookie)
	return s.bearerToken(t, cookie), cookie
}

// bearerToken reads the token behind a session cookie.
func (s *testServer) bearerToken(t *testing.T, cookie *http.Cookie) string {
	t.Helper()

	rr := s.do(t, http.MethodGet, "/auth/token", nil, withCookie(cookie))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	token := decodeData[struct {
		Token string `json:"token"`
	}](t, rr).Token
	require.NotEmpty(t, token)
	return token
}

var errBoom = errors.New("boom")
