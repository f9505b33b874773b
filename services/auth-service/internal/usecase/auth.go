package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/ticket-booking-api/shared/auth"
	"github.com/vasapolrittideah/ticket-booking-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.Profile, error)
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Authenticate verifies a session token and checks it has not been revoked.
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)

	GetCurrentUser(ctx context.Context, userID string) (*model.Profile, error)

	// ResolveCurrentUser authenticates the token and loads the profile it belongs to.
	ResolveCurrentUser(ctx context.Context, token string) (*model.Profile, error)

	// Logout revokes the token until it expires. Logging out twice is not an error.
	Logout(ctx context.Context, token string) error
}

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, *auth.Claims, error)
	Verify(token string) (*auth.Claims, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult carries the issued session token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.Profile
}

// Option configures a usecase.
type Option func(*clock)

type clock struct {
	now func() time.Time
}

// WithClock replaces the time source used for lockout and otp expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *clock) {
		c.now = now
	}
}

func newClock(opts []Option) clock {
	c := clock{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

type authUsecase struct {
	clock

	userRepo  repository.UserRepository
	tokenRepo repository.RevokedTokenRepository
	hasher    security.PasswordHasher
	tokens    TokenIssuer
	lockout   config.LockoutConfig
	metrics   *metrics.Metrics
}

// NewAuthUsecase creates a new instance of AuthUsecase. A lockout with
// MaxAttempts of zero disables account locking.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	tokenRepo repository.RevokedTokenRepository,
	hasher security.PasswordHasher,
	tokens TokenIssuer,
	lockout config.LockoutConfig,
	m *metrics.Metrics,
	opts ...Option,
) AuthUsecase {
	return &authUsecase{
		clock:     newClock(opts),
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		hasher:    hasher,
		tokens:    tokens,
		lockout:   lockout,
		metrics:   m,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.Profile, error) {
	email := NormalizeEmail(params.Email)
	if email == "" || params.Password == "" {
		return nil, ErrInvalidRequest
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		u.metrics.RecordRegistration(metrics.OutcomeDuplicate)
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		u.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		u.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := params.Role
	if role == "" {
		role = model.RoleUser
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         strings.TrimSpace(params.Name),
		Email:        email,
		Role:         role,
		PasswordHash: passwordHash,
	})
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repository.ErrDuplicateEmail) {
			u.metrics.RecordRegistration(metrics.OutcomeDuplicate)
			return nil, ErrUserAlreadyExists
		}
		u.metrics.RecordRegistration(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	u.metrics.RecordRegistration(metrics.OutcomeSuccess)
	return user.Profile(), nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	result, outcome, err := u.login(ctx, params)
	u.metrics.RecordLogin(outcome)
	return result, err
}

func (u *authUsecase) login(ctx context.Context, params LoginParams) (*LoginResult, string, error) {
	user, err := u.userRepo.GetUserByEmail(ctx, NormalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, metrics.OutcomeNotFound, ErrUserNotFound
		}
		return nil, metrics.OutcomeError, fmt.Errorf("failed to look up user: %w", err)
	}

	now := u.now()
	if u.lockoutEnabled() && user.IsLocked(now) {
		return nil, metrics.OutcomeLocked, ErrAccountLocked
	}

	ok, err := u.hasher.Verify(params.Password, user.PasswordHash)
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("failed to verify password: %w", err)
	}

	userID := user.ID.Hex()
	if !ok {
		if u.lockoutEnabled() {
			if _, err := u.userRepo.RecordLoginFailure(ctx, userID, u.lockout.MaxAttempts, now.Add(u.lockout.Duration)); err != nil {
				return nil, metrics.OutcomeError, fmt.Errorf("failed to record login failure: %w", err)
			}
		}
		return nil, metrics.OutcomeInvalidCredentials, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockedUntil != nil {
		if err := u.userRepo.ResetLoginFailures(ctx, userID); err != nil {
			return nil, metrics.OutcomeError, fmt.Errorf("failed to reset login failures: %w", err)
		}
	}

	token, claims, err := u.tokens.Issue(userID)
	if err != nil {
		return nil, metrics.OutcomeError, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user.Profile(),
	}, metrics.OutcomeSuccess, nil
}

func (u *authUsecase) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := u.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := u.tokenRepo.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user.Profile(), nil
}

func (u *authUsecase) ResolveCurrentUser(ctx context.Context, token string) (*model.Profile, error) {
	claims, err := u.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	return u.GetCurrentUser(ctx, claims.UserID)
}

func (u *authUsecase) Logout(ctx context.Context, token string) error {
	claims, err := u.tokens.Verify(token)
	if err != nil {
		return err
	}

	if err := u.tokenRepo.RevokeToken(ctx, &model.RevokedToken{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
	}); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	u.metrics.RecordLogout()
	return nil
}

func (u *authUsecase) lockoutEnabled() bool {
	return u.lockout.MaxAttempts > 0
}

// NormalizeEmail returns the form of an email address used as the login key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
