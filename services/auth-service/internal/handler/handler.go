package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/ticket-booking-api/shared/auth"
	"github.com/vasapolrittideah/ticket-booking-api/shared/utilities"
	"github.com/vasapolrittideah/ticket-booking-api/shared/validator"
)

const (
	msgInvalidRequest   = "Invalid request."
	msgInvalidBody      = "Invalid request body."
	msgMissingToken     = "Authorization token is missing."
	msgInvalidToken     = "Invalid token."
	msgExpiredToken     = "Token expired, please login again."
	msgRevokedToken     = "Token has been revoked, please login again."
	msgUserNotFound     = "User not found."
	msgSomethingWrong   = "Something went wrong."
	msgAccountLocked    = "Too many failed login attempts. Please try again later."
	msgNotificationFail = "Failed to send OTP email. Please try again later."
)

// AuthHTTPHandler serves the /users endpoints.
type AuthHTTPHandler struct {
	authUsecase          usecase.AuthUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	validator            *validator.Validator
	logger               *zerolog.Logger
}

func NewAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	v *validator.Validator,
	logger *zerolog.Logger,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		authUsecase:          authUsecase,
		passwordResetUsecase: passwordResetUsecase,
		validator:            v,
		logger:               logger,
	}
}

// decode reads and validates the request body, writing a 400 response on failure.
func (h *AuthHTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utilities.DecodeJSON(w, r, dst); err != nil {
		h.fail(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}

	return h.valid(w, r, dst)
}

// valid runs struct validation, writing a 400 response listing the failed fields.
func (h *AuthHTTPHandler) valid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := h.validator.Struct(dst); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			h.fail(w, http.StatusBadRequest, verr.Error())
			return false
		}
		h.internalError(w, r, err, msgSomethingWrong)
		return false
	}

	return true
}

func (h *AuthHTTPHandler) succeed(w http.ResponseWriter, status int, resp payload.Response) {
	resp.Success = true
	utilities.WriteJSON(w, status, resp)
}

func (h *AuthHTTPHandler) fail(w http.ResponseWriter, status int, message string) {
	utilities.WriteJSON(w, status, payload.Response{Success: false, Message: message})
}

// internalError logs err and answers with a generic 500 so internals never reach the client.
func (h *AuthHTTPHandler) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	h.logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(message)
	h.fail(w, http.StatusInternalServerError, message)
}

// writeAuthError answers requests whose bearer token was rejected.
func (h *AuthHTTPHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingAuthHeader), errors.Is(err, auth.ErrInvalidBearerFormat):
		h.fail(w, http.StatusUnauthorized, msgMissingToken)
	case errors.Is(err, auth.ErrTokenExpired):
		h.fail(w, http.StatusUnauthorized, msgExpiredToken)
	case errors.Is(err, usecase.ErrTokenRevoked):
		h.fail(w, http.StatusUnauthorized, msgRevokedToken)
	case errors.Is(err, auth.ErrTokenInvalid):
		h.fail(w, http.StatusUnauthorized, msgInvalidToken)
	default:
		h.internalError(w, r, err, msgSomethingWrong)
	}
}
