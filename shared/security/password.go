package security

import (
	"errors"
	"fmt"

	"github.com/matthewhartstonge/argon2"
)

var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrHashFormat    = errors.New("malformed password hash")
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns a salted argon2id hash of the password in PHC string format.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the hash. A mismatch is
	// (false, nil); only a malformed hash returns an error.
	Verify(password, hash string) (bool, error)
}

// Argon2Hasher implements PasswordHasher with argon2id.
type Argon2Hasher struct {
	config argon2.Config
}

// NewArgon2Hasher creates a new Argon2Hasher with the given cost parameters.
func NewArgon2Hasher(config argon2.Config) *Argon2Hasher {
	config.Mode = argon2.ModeArgon2id
	return &Argon2Hasher{config: config}
}

// DefaultHasher returns an argon2id hasher with the library's default cost parameters.
func DefaultHasher() PasswordHasher {
	return NewArgon2Hasher(argon2.DefaultConfig())
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(encoded), nil
}

func (h *Argon2Hasher) Verify(password, hash string) (bool, error) {
	ok, err := argon2.VerifyEncoded([]byte(password), []byte(hash))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrHashFormat, err)
	}

	return ok, nil
}
