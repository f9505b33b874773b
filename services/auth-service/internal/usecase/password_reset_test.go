package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/otp"
)

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@example.com", "pw1")

	code := env.requestCode(t, "A@example.com ")
	assert.Len(t, code, 6)

	stored, err := env.users.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, code, stored.OTP)
	require.NotNil(t, stored.OTPExpiresAt)
	assert.True(t, env.clock.Now().Add(10*time.Minute).Equal(*stored.OTPExpiresAt))

	env.notifier.AssertExpectations(t)
}

func TestRequestPasswordReset_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@example.com", "pw1")

	t.Run("empty email", func(t *testing.T) {
		assert.ErrorIs(t, env.reset.RequestPasswordReset(ctx, " "), ErrInvalidRequest)
	})

	t.Run("unknown email", func(t *testing.T) {
		assert.ErrorIs(t, env.reset.RequestPasswordReset(ctx, "nobody@example.com"), ErrUserNotFound)
		env.notifier.AssertNotCalled(t, "SendPasswordResetOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("delivery failure", func(t *testing.T) {
		smtpErr := errors.New("connection refused")
		env.notifier.On("SendPasswordResetOTP", mock.Anything, "a@example.com", mock.Anything, mock.Anything, mock.Anything).
			Return(smtpErr).
			Once()

		err := env.reset.RequestPasswordReset(ctx, "a@example.com")
		assert.ErrorIs(t, err, ErrNotificationFailed)
		assert.ErrorIs(t, err, smtpErr)

		// The issued code stays stored.
		stored, err := env.users.GetUserByEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.True(t, stored.HasPendingOTP())
	})
}

func TestResetPassword_Flow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@example.com", "pw1")

	code := env.requestCode(t, "a@example.com")
	env.clock.Advance(5 * time.Minute)

	require.NoError(t, env.reset.ResetPassword(ctx, ResetPasswordParams{OTP: code, Password: "pw2"}))

	_, err := env.auth.Login(ctx, LoginParams{Email: "a@example.com", Password: "pw1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginParams{Email: "a@example.com", Password: "pw2"})
	require.NoError(t, err)

	stored, err := env.users.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, stored.HasPendingOTP())

	err = env.reset.ResetPassword(ctx, ResetPasswordParams{OTP: code, Password: "pw3"})
	assert.ErrorIs(t, err, otp.ErrNotFound)
}

func TestResetPassword_Expired(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@example.com", "pw1")

	code := env.requestCode(t, "a@example.com")
	env.clock.Advance(11 * time.Minute)

	err := env.reset.ResetPassword(ctx, ResetPasswordParams{OTP: code, Password: "pw2"})
	assert.ErrorIs(t, err, otp.ErrExpired)

	_, err = env.auth.Login(ctx, LoginParams{Email: "a@example.com", Password: "pw1"})
	assert.NoError(t, err)

	// A fresh request replaces the stale code.
	fresh := env.requestCode(t, "a@example.com")
	require.NoError(t, env.reset.ResetPassword(ctx, ResetPasswordParams{OTP: fresh, Password: "pw2"}))
}

func TestResetPassword_Invalid(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@example.com", "pw1")
	env.register(t, "b@example.com", "pw1")
	code := env.requestCode(t, "a@example.com")

	tests := []struct {
		name    string
		params  ResetPasswordParams
		wantErr error
	}{
		{name: "missing otp", params: ResetPasswordParams{Password: "pw2"}, wantErr: ErrInvalidRequest},
		{name: "missing password", params: ResetPasswordParams{OTP: code}, wantErr: ErrInvalidRequest},
		{name: "unknown otp", params: ResetPasswordParams{OTP: "000000", Password: "pw2"}, wantErr: otp.ErrNotFound},
		{name: "otp of another account", params: ResetPasswordParams{OTP: code, Password: "pw2", Email: "b@example.com"}, wantErr: otp.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.reset.ResetPassword(ctx, tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	require.NoError(t, env.reset.ResetPassword(ctx, ResetPasswordParams{OTP: code, Password: "pw2", Email: "A@example.com"}))
}

func TestResetPassword_ClearsLockout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@example.com", "pw1")

	for i := 0; i < 3; i++ {
		_, err := env.auth.Login(ctx, LoginParams{Email: "a@example.com", Password: "bad"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}
	_, err := env.auth.Login(ctx, LoginParams{Email: "a@example.com", Password: "pw1"})
	require.ErrorIs(t, err, ErrAccountLocked)

	code := env.requestCode(t, "a@example.com")
	require.NoError(t, env.reset.ResetPassword(ctx, ResetPasswordParams{OTP: code, Password: "pw2"}))

	_, err = env.auth.Login(ctx, LoginParams{Email: "a@example.com", Password: "pw2"})
	assert.NoError(t, err)
}

func TestResetPassword_ConcurrentSameCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "a@example.com", "pw1")
	code := env.requestCode(t, "a@example.com")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := env.reset.ResetPassword(ctx, ResetPasswordParams{OTP: code, Password: "pw2"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, otp.ErrNotFound)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}
