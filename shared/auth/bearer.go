package auth

import (
	"errors"
	"strings"
)

var (
	ErrMissingAuthHeader   = errors.New("missing authorization header")
	ErrInvalidBearerFormat = errors.New("invalid authorization header format")
)

// ParseBearerToken extracts the token from an "Authorization: Bearer <token>" header value.
// The scheme is matched case-insensitively.
func ParseBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidBearerFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrInvalidBearerFormat
	}

	return token, nil
}
