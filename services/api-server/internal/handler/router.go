// Package handler exposes the api-server over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/config"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

// Dependencies are everything the router serves.
type Dependencies struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Metrics   *metrics.Metrics
	Validator *validation.Validator
	Clock     clockwork.Clock

	Registration  usecase.RegistrationUsecase
	PasswordReset usecase.PasswordResetUsecase
	Sessions      usecase.SessionUsecase
	Colors        usecase.ColorUsecase
	Finance       usecase.FinanceUsecase

	Tasks        usecase.ResourceUsecase[model.Task, *model.Task]
	Events       usecase.ResourceUsecase[model.Event, *model.Event]
	Schedules    usecase.ResourceUsecase[model.Schedule, *model.Schedule]
	Activities   usecase.ResourceUsecase[model.Activity, *model.Activity]
	Transactions usecase.ResourceUsecase[model.Transaction, *model.Transaction]

	// Google is nil when Google sign-in is not configured.
	Google GoogleProvider

	// HealthCheck reports whether backing stores are reachable.
	HealthCheck func(ctx context.Context) error
}

func NewRouter(deps Dependencies) http.Handler {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	validated := responder{logger: deps.Logger, validator: deps.Validator}
	plain := responder{logger: deps.Logger}

	auth := &authHandler{
		responder:    validated,
		registration: deps.Registration,
		sessions:     deps.Sessions,
		cookieMaxAge: deps.Config.Token.SessionCookieMaxAge,
	}
	passwordReset := &passwordResetHandler{responder: validated, passwordReset: deps.PasswordReset}
	limiter := NewRateLimiter(clock, deps.Config.RateLimit.RequestsPerSecond, deps.Config.RateLimit.Burst)
	gate := Authenticate(deps.Sessions, deps.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger, deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", healthz(deps.HealthCheck))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Use(limiter.Handler)

		r.Post("/register", auth.register)
		r.Post("/register/resend", auth.resendRegistration)
		r.Post("/verify", auth.verifyRegistration)
		r.Post("/login", auth.login)
		r.Post("/logout", auth.logout)
		r.Get("/token", auth.token)
		r.With(gate).Get("/me", auth.me)

		r.Post("/password/forgot", passwordReset.forgot)
		r.Post("/password/resend", passwordReset.resend)
		r.Post("/password/verify", passwordReset.verify)
		r.Post("/password/reset", passwordReset.reset)

		if deps.Google != nil {
			google := &googleHandler{
				authHandler:        auth,
				google:             deps.Google,
				failureRedirectURL: deps.Config.Google.FailureRedirectURL,
			}
			r.Get("/google", google.begin)
			r.Get("/google/callback", google.callback)
			r.Post("/google/token", google.idToken)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(gate)

		r.Route("/tasks", (&resourceHandler[model.Task, *model.Task]{
			responder: plain, name: "tasks", resource: deps.Tasks,
		}).mount)
		r.Route("/events", (&resourceHandler[model.Event, *model.Event]{
			responder: plain, name: "events", resource: deps.Events,
		}).mount)
		r.Route("/schedules", (&resourceHandler[model.Schedule, *model.Schedule]{
			responder: plain, name: "schedules", resource: deps.Schedules,
		}).mount)
		r.Route("/activities", (&resourceHandler[model.Activity, *model.Activity]{
			responder: plain, name: "activities", resource: deps.Activities,
		}).mount)

		transactions := &resourceHandler[model.Transaction, *model.Transaction]{
			responder: plain, name: "transactions", resource: deps.Transactions,
		}
		finance := &financeHandler{responder: plain, finance: deps.Finance}
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/summary", finance.summary)
			transactions.mount(r)
		})

		r.Route("/colors", (&colorHandler{responder: validated, colors: deps.Colors}).mount)

		r.Get("/days", listDays)
		r.Get("/days/{id}", getDay)
	})

	return r
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				respondMessage(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		respondMessage(w, http.StatusOK, "ok")
	}
}
