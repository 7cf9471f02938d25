package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/metrics"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"

	authorizationHeader = "Authorization"
	bearerPrefix        = "bearer "
)

var (
	errMissingBearer = errors.New("missing bearer token")
	errBearerScheme  = errors.New("invalid authorization scheme")
)

// UserIDFromContext returns the id of the user the request was authorized for.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok && userID != ""
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, strings.TrimSpace(bearerPrefix)) {
		return "", errMissingBearer
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", errBearerScheme
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errMissingBearer
	}
	return token, nil
}

// Authenticate admits requests whose bearer token has a valid signature and a
// live authorization grant. The user id is put in the context.
func Authenticate(sessions usecase.SessionUsecase, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extractBearerToken(r.Header.Get(authorizationHeader))
			if err != nil {
				respondMessage(w, http.StatusUnauthorized, err.Error())
				return
			}

			userID, err := sessions.Authorize(r.Context(), token)
			if err != nil {
				if errors.Is(err, usecase.ErrUnauthorized) {
					respondMessage(w, http.StatusUnauthorized, "invalid or revoked token")
					return
				}

				logger.Error().Err(err).Msg("Failed to authorize request")
				respondMessage(w, http.StatusInternalServerError, "something went wrong")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
		})
	}
}

// RequestLogger logs every request and records its latency by route pattern.
func RequestLogger(logger *zerolog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			if m != nil {
				m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
			}

			logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", elapsed).
				Msg("HTTP request")
		})
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	visitors  map[string]*visitor
	lastSweep time.Time
}

func NewRateLimiter(clock clockwork.Clock, requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		clock:     clock,
		limit:     rate.Limit(requestsPerSecond),
		burst:     burst,
		idleTTL:   5 * time.Minute,
		visitors:  make(map[string]*visitor),
		lastSweep: clock.Now(),
	}
}

// Allow reports whether a request from ip may proceed.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			respondMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP expects middleware.RealIP to have resolved forwarding headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
