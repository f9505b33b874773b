// Package otp issues and checks the one-time codes used for password reset.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/repository"
)

const (
	MinDigits = 5
	MaxDigits = 6

	// maxRerolls bounds how often a code already pending on another account is redrawn.
	maxRerolls = 3
)

var (
	ErrNotFound      = errors.New("otp not found")
	ErrExpired       = errors.New("otp expired")
	ErrInvalidConfig = errors.New("invalid otp config")
)

// Store is the part of the credential store the manager needs.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByOTP(ctx context.Context, otp string) (*model.User, error)
	SetOTP(ctx context.Context, id, otp string, expiresAt time.Time) error
}

// Config sets the code length and lifetime.
type Config struct {
	Digits int
	TTL    time.Duration
}

// Manager issues and validates password reset codes.
type Manager struct {
	store  Store
	digits int
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces the time source used for expiry calculation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithRandom replaces the randomness source. Only meant for tests.
func WithRandom(r io.Reader) Option {
	return func(m *Manager) {
		m.random = r
	}
}

// NewManager returns a Manager backed by store, or ErrInvalidConfig if cfg is out of range.
func NewManager(store Store, cfg Config, opts ...Option) (*Manager, error) {
	if cfg.Digits < MinDigits || cfg.Digits > MaxDigits {
		return nil, fmt.Errorf("%w: digits must be between %d and %d", ErrInvalidConfig, MinDigits, MaxDigits)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", ErrInvalidConfig)
	}

	m := &Manager{
		store:  store,
		digits: cfg.Digits,
		ttl:    cfg.TTL,
		now:    time.Now,
		random: rand.Reader,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// Generate draws a code uniformly from the numbers with exactly the configured
// number of digits, so it never has a leading zero.
func (m *Manager) Generate() (string, error) {
	low := pow10(m.digits - 1)
	span := new(big.Int).Sub(pow10(m.digits), low)

	n, err := rand.Int(m.random, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return n.Add(n, low).String(), nil
}

// IssueFor stores a fresh code on the user, replacing any pending one.
func (m *Manager) IssueFor(ctx context.Context, user *model.User) (string, time.Time, error) {
	code, err := m.uniqueCode(ctx, user)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := m.now().Add(m.ttl)
	if err := m.store.SetOTP(ctx, user.ID.Hex(), code, expiresAt); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store otp: %w", err)
	}

	return code, expiresAt, nil
}

// TTL returns how long an issued code stays valid.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Validate finds the user holding code. The code is not consumed and an
// expired code stays stored until it is replaced.
func (m *Manager) Validate(ctx context.Context, code string, now time.Time) (*model.User, error) {
	if code == "" {
		return nil, ErrNotFound
	}

	user, err := m.store.GetUserByOTP(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find otp: %w", err)
	}

	if err := checkExpiry(user, now); err != nil {
		return nil, err
	}

	return user, nil
}

// ValidateForEmail is like Validate but only accepts the code pending on the
// account with the given email.
func (m *Manager) ValidateForEmail(ctx context.Context, email, code string, now time.Time) (*model.User, error) {
	if code == "" {
		return nil, ErrNotFound
	}

	user, err := m.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasPendingOTP() || subtle.ConstantTimeCompare([]byte(user.OTP), []byte(code)) != 1 {
		return nil, ErrNotFound
	}

	if err := checkExpiry(user, now); err != nil {
		return nil, err
	}

	return user, nil
}

func (m *Manager) uniqueCode(ctx context.Context, user *model.User) (string, error) {
	var code string
	for i := 0; i < maxRerolls+1; i++ {
		var err error
		code, err = m.Generate()
		if err != nil {
			return "", err
		}

		holder, err := m.store.GetUserByOTP(ctx, code)
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return code, nil
		case err != nil:
			return "", fmt.Errorf("failed to check otp: %w", err)
		case holder.ID == user.ID:
			return code, nil
		}
	}

	return code, nil
}

func checkExpiry(user *model.User, now time.Time) error {
	if user.OTPExpiresAt == nil || now.After(*user.OTPExpiresAt) {
		return ErrExpired
	}
	return nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
