package handler

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/payload"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/provider"
)

const (
	oauthStateCookieName = "oauthState"
	oauthStateMaxAge     = 600
)

// GoogleProvider is the part of *provider.GoogleOAuthProvider the handlers use.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*provider.GoogleProfile, error)
	ValidateIDToken(ctx context.Context, idToken string) (*provider.GoogleProfile, error)
}

type googleHandler struct {
	*authHandler
	google             GoogleProvider
	failureRedirectURL string
}

func (h *googleHandler) begin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

// callback finishes the authorization code flow. Every failure sends the
// browser to the failure URL instead of rendering an error.
func (h *googleHandler) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if reason := query.Get("error"); reason != "" {
		h.logger.Warn().Str("reason", reason).Msg("Google sign-in was declined")
		h.redirectFailure(w, r)
		return
	}

	cookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(query.Get("state"))) != 1 {
		h.logger.Warn().Msg("Google callback state mismatch")
		h.redirectFailure(w, r)
		return
	}
	h.clearStateCookie(w)

	code := query.Get("code")
	if code == "" {
		h.redirectFailure(w, r)
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to exchange Google authorization code")
		h.redirectFailure(w, r)
		return
	}

	result, err := h.sessions.Authenticate(r.Context(), externalIdentity(profile))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to authenticate Google user")
		h.redirectFailure(w, r)
		return
	}

	h.setSessionCookie(w, result.SessionID)
	respond(w, http.StatusOK, "login successful", toLoginResponse(result))
}

// idToken signs in a client that obtained a Google ID token on its own.
func (h *googleHandler) idToken(w http.ResponseWriter, r *http.Request) {
	var req payload.GoogleTokenRequest
	if !h.decode(w, r, &req) {
		return
	}

	profile, err := h.google.ValidateIDToken(r.Context(), req.IDToken)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Rejected Google ID token")
		respondMessage(w, http.StatusUnauthorized, "invalid google id token")
		return
	}

	result, err := h.sessions.Authenticate(r.Context(), externalIdentity(profile))
	if err != nil {
		h.fail(w, r, err, "authenticate google user")
		return
	}

	h.setSessionCookie(w, result.SessionID)
	respond(w, http.StatusOK, "login successful", toLoginResponse(result))
}

func (h *googleHandler) redirectFailure(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.failureRedirectURL, http.StatusFound)
}

func (h *googleHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func externalIdentity(profile *provider.GoogleProfile) usecase.ExternalIdentity {
	return usecase.ExternalIdentity{
		Provider: "google",
		ID:       profile.ID,
		Name:     profile.Name,
		Email:    profile.Email,
		Picture:  profile.Picture,
	}
}
