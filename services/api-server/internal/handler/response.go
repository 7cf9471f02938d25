package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/rizalkalam/dailycollege-rest-server-sub000/services/api-server/internal/usecase"
	"github.com/rizalkalam/dailycollege-rest-server-sub000/shared/validation"
)

const maxBodyBytes = 1 << 20

// envelope is the shape of every JSON response.
type envelope struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Data    any               `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Message: message, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Message: message})
}

// responder maps usecase errors to HTTP responses. Server side failures are
// logged, clients only see a generic message.
type responder struct {
	logger    *zerolog.Logger
	validator *validation.Validator
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		body := envelope{Message: usecase.ErrValidation.Error()}
		var verr *validation.Error
		if errors.As(err, &verr) {
			body.Errors = verr.Fields
		}
		writeJSON(w, http.StatusBadRequest, body)
	case errors.Is(err, usecase.ErrConflict):
		respondMessage(w, http.StatusBadRequest, usecase.ErrConflict.Error())
	case errors.Is(err, usecase.ErrInvalidCode):
		respondMessage(w, http.StatusBadRequest, usecase.ErrInvalidCode.Error())
	case errors.Is(err, usecase.ErrExpired):
		respondMessage(w, http.StatusBadRequest, usecase.ErrExpired.Error())
	case errors.Is(err, usecase.ErrNotFound):
		respondMessage(w, http.StatusNotFound, usecase.ErrNotFound.Error())
	case errors.Is(err, usecase.ErrUnauthorized):
		respondMessage(w, http.StatusUnauthorized, usecase.ErrUnauthorized.Error())
	default:
		rs.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Failed to " + action)
		respondMessage(w, http.StatusInternalServerError, "something went wrong")
	}
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (rs responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if rs.validator == nil {
		return true
	}

	if err := rs.validator.Struct(dst); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, envelope{Message: usecase.ErrValidation.Error(), Errors: verr.Fields})
			return false
		}
		respondMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	return true
}
