package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
)

var ErrInvalidOTPCode = errors.New("otp must be a string or a non-negative integer")

type RegisterRequest struct {
	Email    string     `json:"email"    validate:"required,email"`
	Password string     `json:"password" validate:"required,max=128"`
	Name     string     `json:"name"     validate:"omitempty,max=100"`
	Role     model.Role `json:"role"     validate:"omitempty,oneof=user partner"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	OTP      OTPCode `json:"otp"      validate:"required"`
	Password string  `json:"password" validate:"required,max=128"`
	Email    string  `json:"email"    validate:"omitempty,email"`
}

// Response is the envelope of every auth endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OTPCode is a reset code that clients may send either as a JSON string or as
// a JSON number.
type OTPCode string

func (c *OTPCode) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = OTPCode(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidOTPCode
	}

	digits := n.String()
	if digits == "" || strings.ContainsFunc(digits, func(r rune) bool { return r < '0' || r > '9' }) {
		return ErrInvalidOTPCode
	}

	*c = OTPCode(digits)
	return nil
}
