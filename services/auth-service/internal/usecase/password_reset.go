package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/notification"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/otp"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/ticket-booking-api/shared/security"
)

// PasswordResetUsecase defines the business logic for the OTP password reset flow.
type PasswordResetUsecase interface {
	// RequestPasswordReset issues a reset code for the account and emails it.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword replaces the password of the account holding the code.
	// When params.Email is set the code must belong to that account.
	ResetPassword(ctx context.Context, params ResetPasswordParams) error
}

// ResetPasswordParams defines the parameters for completing a password reset.
type ResetPasswordParams struct {
	OTP      string
	Password string
	Email    string
}

type passwordResetUsecase struct {
	clock

	userRepo repository.UserRepository
	otp      *otp.Manager
	hasher   security.PasswordHasher
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	otpManager *otp.Manager,
	hasher security.PasswordHasher,
	notifier notification.Notifier,
	m *metrics.Metrics,
	logger *zerolog.Logger,
	opts ...Option,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		clock:    newClock(opts),
		userRepo: userRepo,
		otp:      otpManager,
		hasher:   hasher,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return ErrInvalidRequest
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	code, expiresAt, err := u.otp.IssueFor(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to issue otp: %w", err)
	}
	u.metrics.RecordOTPIssued()

	if err := u.notifier.SendPasswordResetOTP(ctx, user.Email, user.Name, code, u.otp.TTL()); err != nil {
		// The code stays stored; requesting again replaces it.
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	u.logger.Info().
		Str("user_id", user.ID.Hex()).
		Time("expires_at", expiresAt).
		Msg("password reset code issued")

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	err := u.resetPassword(ctx, params)

	switch {
	case err == nil:
		u.metrics.RecordPasswordReset(metrics.OutcomeSuccess)
	case errors.Is(err, otp.ErrExpired):
		u.metrics.RecordPasswordReset(metrics.OutcomeExpired)
	case errors.Is(err, otp.ErrNotFound):
		u.metrics.RecordPasswordReset(metrics.OutcomeNotFound)
	case !errors.Is(err, ErrInvalidRequest):
		u.metrics.RecordPasswordReset(metrics.OutcomeError)
	}

	return err
}

func (u *passwordResetUsecase) resetPassword(ctx context.Context, params ResetPasswordParams) error {
	if params.OTP == "" || params.Password == "" {
		return ErrInvalidRequest
	}

	now := u.now()

	var (
		user *model.User
		err  error
	)
	if email := NormalizeEmail(params.Email); email != "" {
		user, err = u.otp.ValidateForEmail(ctx, email, params.OTP, now)
	} else {
		user, err = u.otp.Validate(ctx, params.OTP, now)
	}
	if err != nil {
		return err
	}

	passwordHash, err := u.hasher.Hash(params.Password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Conditional on the code still being pending, so a concurrent reset with
	// the same code cannot apply twice.
	if err := u.userRepo.ResetPassword(ctx, user.ID.Hex(), params.OTP, passwordHash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return otp.ErrNotFound
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	u.logger.Info().Str("user_id", user.ID.Hex()).Msg("password reset")

	return nil
}
