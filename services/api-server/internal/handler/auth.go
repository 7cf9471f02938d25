package handler

import (
	"net/http"
	"time"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/model"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/payload"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
)

const sessionCookieName = "sessionId"

type authHandler struct {
	responder
	registration usecase.RegistrationUsecase
	sessions     usecase.SessionUsecase
	cookieMaxAge time.Duration
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.registration.RequestRegistration(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err, "request registration")
		return
	}

	respondMessage(w, http.StatusOK, "verification code has been sent to your email")
}

func (h *authHandler) resendRegistration(w http.ResponseWriter, r *http.Request) {
	var req payload.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.registration.ResendRegistration(r.Context(), req.Email); err != nil {
		h.fail(w, r, err, "resend registration code")
		return
	}

	respondMessage(w, http.StatusOK, "a new verification code has been sent to your email")
}

func (h *authHandler) verifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyRegistrationRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.registration.VerifyRegistration(r.Context(), string(req.VerificationCode))
	if err != nil {
		h.fail(w, r, err, "verify registration")
		return
	}

	respond(w, http.StatusOK, "registration completed", toUserResponse(user))
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.sessions.Authenticate(r.Context(), usecase.PasswordCredential{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(w, r, err, "log in")
		return
	}

	h.setSessionCookie(w, result.SessionID)
	respond(w, http.StatusOK, "login successful", toLoginResponse(result))
}

func (h *authHandler) logout(w http.ResponseWriter, r *http.Request) {
	// A malformed header is treated like a missing token.
	token, _ := extractBearerToken(r.Header.Get(authorizationHeader))

	var sessionID string
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	if err := h.sessions.Logout(r.Context(), token, sessionID); err != nil {
		h.fail(w, r, err, "log out")
		return
	}

	h.clearSessionCookie(w)
	respondMessage(w, http.StatusOK, "logout successful")
}

func (h *authHandler) token(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		respondMessage(w, http.StatusUnauthorized, "missing session cookie")
		return
	}

	info, err := h.sessions.GetToken(r.Context(), cookie.Value)
	if err != nil {
		h.fail(w, r, err, "get token")
		return
	}

	respond(w, http.StatusOK, "token retrieved", payload.TokenResponse{
		Token:          info.Token,
		ExpiresAt:      info.ExpiresAt.UTC().Format(time.RFC1123),
		ExpiresIn:      info.ExpiresIn,
		ExpirationInfo: info.ExpirationInfo,
	})
}

func (h *authHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	user, err := h.sessions.CurrentUser(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err, "get current user")
		return
	}

	respond(w, http.StatusOK, "user retrieved", toUserResponse(user))
}

func (h *authHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge / time.Second),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *authHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func toUserResponse(user *model.User) payload.UserResponse {
	return payload.UserResponse{
		ID:       user.ID.Hex(),
		Name:     user.Name,
		Email:    user.Email,
		Avatar:   user.Avatar,
		Verified: user.Verified,
	}
}

func toLoginResponse(result *usecase.AuthResult) payload.LoginResponse {
	return payload.LoginResponse{
		User:      toUserResponse(result.User),
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC1123),
		IsNewUser: result.Created,
	}
}
