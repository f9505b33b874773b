package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	MinSecretLength = 32
	MaxLeeway       = 5 * time.Second
)

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	ErrInvalidTTL     = errors.New("token ttl must be positive")
	ErrInvalidLeeway  = fmt.Errorf("token leeway must be between 0 and %s", MaxLeeway)
)

// TokenConfig holds the settings used to sign and verify session tokens.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration
}

// Claims are the claims embedded in a session token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and verifies HS256 session tokens.
type JWTAuthenticator struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
	now      func() time.Time
}

// Option configures a JWTAuthenticator.
type Option func(*JWTAuthenticator)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(a *JWTAuthenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// NewJWTAuthenticator creates a new JWTAuthenticator. The secret is bound at
// construction; rotating it invalidates every outstanding token.
func NewJWTAuthenticator(cfg TokenConfig, opts ...Option) (*JWTAuthenticator, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Leeway < 0 || cfg.Leeway > MaxLeeway {
		return nil, ErrInvalidLeeway
	}

	a := &JWTAuthenticator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		leeway:   cfg.Leeway,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a, nil
}

// Issue mints a token for the given user that expires after the configured TTL.
func (a *JWTAuthenticator) Issue(userID string) (string, *Claims, error) {
	if userID == "" {
		return "", nil, errors.New("user id is required")
	}

	// NumericDate has second precision. iat and nbf round down and exp rounds
	// up so a token is never rejected before the full TTL has elapsed.
	now := a.now()
	expiresAt := now.Add(a.ttl)
	if rounded := expiresAt.Truncate(time.Second); !rounded.Equal(expiresAt) {
		expiresAt = rounded.Add(time.Second)
	}
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if a.issuer != "" {
		claims.Issuer = a.issuer
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenStr, claims, nil
}

// Verify parses the token, checks its signature and expiry and returns its claims.
// Errors are either ErrTokenExpired or ErrTokenInvalid.
func (a *JWTAuthenticator) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(a.leeway),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
