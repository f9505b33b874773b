package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/matthewhartstonge/argon2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/otp"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/ticket-booking-api/shared/auth"
	"github.com/vasapolrittideah/ticket-booking-api/shared/security"
)

const testSecret = "test-secret-key-must-be-32-bytes"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendPasswordResetOTP(ctx context.Context, to, name, code string, expiresIn time.Duration) error {
	args := m.Called(ctx, to, name, code, expiresIn)
	return args.Error(0)
}

type testEnv struct {
	clock    *testClock
	users    *repository.UserMemoryRepository
	revoked  *repository.RevokedTokenMemoryRepository
	tokens   *auth.JWTAuthenticator
	notifier *mockNotifier
	auth     AuthUsecase
	reset    PasswordResetUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Revoked token entries are expired against the wall clock, so the test
	// clock starts at the current time.
	clock := &testClock{now: time.Now().Truncate(time.Second)}

	cfg := argon2.DefaultConfig()
	cfg.TimeCost = 1
	cfg.MemoryCost = 8 * 1024
	cfg.Parallelism = 1
	hasher := security.NewArgon2Hasher(cfg)

	tokens, err := auth.NewJWTAuthenticator(auth.TokenConfig{
		Secret:   testSecret,
		Issuer:   "ticket-booking-api",
		Audience: "ticket-booking-api",
		TTL:      24 * time.Hour,
	}, auth.WithClock(clock.Now))
	require.NoError(t, err)

	users := repository.NewUserMemoryRepository()
	revoked := repository.NewRevokedTokenMemoryRepository()

	otpManager, err := otp.NewManager(users, otp.Config{Digits: 6, TTL: 10 * time.Minute}, otp.WithClock(clock.Now))
	require.NoError(t, err)

	m := metrics.New()
	logger := zerolog.Nop()
	notifier := new(mockNotifier)

	return &testEnv{
		clock:    clock,
		users:    users,
		revoked:  revoked,
		tokens:   tokens,
		notifier: notifier,
		auth: NewAuthUsecase(
			users,
			revoked,
			hasher,
			tokens,
			config.LockoutConfig{MaxAttempts: 3, Duration: 15 * time.Minute},
			m,
			WithClock(clock.Now),
		),
		reset: NewPasswordResetUsecase(users, otpManager, hasher, notifier, m, &logger, WithClock(clock.Now)),
	}
}

func (e *testEnv) register(t *testing.T, email, password string) {
	t.Helper()
	_, err := e.auth.Register(context.Background(), RegisterParams{Email: email, Password: password, Name: "Ann"})
	require.NoError(t, err)
}

// requestCode runs the forgot password step and returns the emailed code.
func (e *testEnv) requestCode(t *testing.T, email string) string {
	t.Helper()

	var code string
	e.notifier.On("SendPasswordResetOTP", mock.Anything, email, mock.Anything, mock.AnythingOfType("string"), 10*time.Minute).
		Run(func(args mock.Arguments) { code = args.String(3) }).
		Return(nil).
		Once()

	require.NoError(t, e.reset.RequestPasswordReset(context.Background(), email))
	require.NotEmpty(t, code)
	return code
}
