package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/otp"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/ticket-booking-api/shared/auth"
	"github.com/vasapolrittideah/ticket-booking-api/shared/middleware"
	"github.com/vasapolrittideah/ticket-booking-api/shared/utilities"
)

// RegisterRoutes mounts the account endpoints under /users.
func (h *AuthHTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Patch("/forgetpassword", h.ForgotPassword)
		r.Patch("/resetpassword", h.ResetPassword)

		r.With(middleware.NewJWTMiddleware(h.authUsecase, h.writeAuthError)).
			Get("/get-current-user", h.GetCurrentUser)
	})
}

func (h *AuthHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			h.fail(w, http.StatusBadRequest, "The user already exists!")
		case errors.Is(err, usecase.ErrInvalidRequest):
			h.fail(w, http.StatusBadRequest, msgInvalidRequest)
		default:
			h.internalError(w, r, err, "An error occurred during registration.")
		}
		return
	}

	h.succeed(w, http.StatusCreated, payload.Response{
		Message: "You've successfully signed up, please login now!",
	})
}

func (h *AuthHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			h.fail(w, http.StatusNotFound, "User does not exist. Please register.")
		case errors.Is(err, usecase.ErrInvalidCredentials):
			h.fail(w, http.StatusBadRequest, "Invalid password entered!")
		case errors.Is(err, usecase.ErrAccountLocked):
			h.fail(w, http.StatusTooManyRequests, msgAccountLocked)
		default:
			h.internalError(w, r, err, "An error occurred during login.")
		}
		return
	}

	h.succeed(w, http.StatusOK, payload.Response{
		Message: "You've successfully logged in!",
		Token:   result.Token,
	})
}

func (h *AuthHTTPHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeAuthError(w, r, auth.ErrTokenInvalid)
		return
	}

	profile, err := h.authUsecase.GetCurrentUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			h.fail(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.internalError(w, r, err, "An error occurred while fetching user data.")
		return
	}

	h.succeed(w, http.StatusOK, payload.Response{
		Message: "You are authorized to go to the protected route!",
		Data:    profile,
	})
}

func (h *AuthHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.ParseBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	if err := h.authUsecase.Logout(r.Context(), token); err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.succeed(w, http.StatusOK, payload.Response{Message: "You've successfully logged out."})
}

func (h *AuthHTTPHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Email) == "" {
		h.fail(w, http.StatusBadRequest, "Please enter the email for forgot password.")
		return
	}
	if !h.valid(w, r, &req) {
		return
	}

	if err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			h.fail(w, http.StatusNotFound, "User not found for this email.")
		case errors.Is(err, usecase.ErrInvalidRequest):
			h.fail(w, http.StatusBadRequest, "Please enter the email for forgot password.")
		case errors.Is(err, usecase.ErrNotificationFailed):
			h.internalError(w, r, err, msgNotificationFail)
		default:
			h.internalError(w, r, err, "An error occurred while processing the request.")
		}
		return
	}

	h.succeed(w, http.StatusOK, payload.Response{Message: "OTP sent to your email."})
}

func (h *AuthHTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := utilities.DecodeJSON(w, r, &req); err != nil || req.OTP == "" || req.Password == "" {
		h.fail(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if !h.valid(w, r, &req) {
		return
	}

	err := h.passwordResetUsecase.ResetPassword(r.Context(), usecase.ResetPasswordParams{
		OTP:      string(req.OTP),
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, otp.ErrNotFound):
			h.fail(w, http.StatusNotFound, msgUserNotFound)
		case errors.Is(err, otp.ErrExpired):
			h.fail(w, http.StatusBadRequest, "OTP expired.")
		case errors.Is(err, usecase.ErrInvalidRequest):
			h.fail(w, http.StatusBadRequest, msgInvalidRequest)
		default:
			h.internalError(w, r, err, "An error occurred while resetting the password.")
		}
		return
	}

	h.succeed(w, http.StatusOK, payload.Response{Message: "Password reset successfully."})
}
