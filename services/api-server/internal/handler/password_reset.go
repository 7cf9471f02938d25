package handler

import (
	"net/http"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/payload"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
)

type passwordResetHandler struct {
	responder
	passwordReset usecase.PasswordResetUsecase
}

func (h *passwordResetHandler) forgot(w http.ResponseWriter, r *http.Request) {
	var req payload.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.passwordReset.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.fail(w, r, err, "request password reset")
		return
	}

	respondMessage(w, http.StatusOK, "password reset code has been sent to your email")
}

func (h *passwordResetHandler) resend(w http.ResponseWriter, r *http.Request) {
	var req payload.EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.passwordReset.ResendPasswordReset(r.Context(), req.Email); err != nil {
		h.fail(w, r, err, "resend password reset code")
		return
	}

	respondMessage(w, http.StatusOK, "a new password reset code has been sent to your email")
}

func (h *passwordResetHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyResetCodeRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.passwordReset.ConfirmResetCode(r.Context(), string(req.Code)); err != nil {
		h.fail(w, r, err, "confirm password reset code")
		return
	}

	respondMessage(w, http.StatusOK, "code verified, you may now set a new password")
}

func (h *passwordResetHandler) reset(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.passwordReset.SetNewPassword(r.Context(), usecase.SetNewPasswordParams{
		Code:            string(req.Code),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.fail(w, r, err, "reset password")
		return
	}

	respondMessage(w, http.StatusOK, "password has been reset")
}
