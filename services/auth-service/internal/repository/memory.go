package repository

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
)

// UserMemoryRepository keeps users in process memory. It is used for tests and
// local runs without a database; data is lost on restart.
type UserMemoryRepository struct {
	mu    sync.RWMutex
	users map[bson.ObjectID]model.User
}

func NewUserMemoryRepository() *UserMemoryRepository {
	return &UserMemoryRepository{
		users: make(map[bson.ObjectID]model.User),
	}
}

func (s *UserMemoryRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, ErrDuplicateEmail
		}
	}

	now := time.Now()
	user.ID = bson.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = cloneUser(*user)

	return user, nil
}

func (s *UserMemoryRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[objectID]
	if !ok {
		return nil, ErrUserNotFound
	}

	result := cloneUser(user)
	return &result, nil
}

func (s *UserMemoryRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.find(ctx, func(u model.User) bool { return u.Email == email })
}

func (s *UserMemoryRepository) GetUserByOTP(ctx context.Context, otp string) (*model.User, error) {
	if otp == "" {
		return nil, ErrUserNotFound
	}

	return s.find(ctx, func(u model.User) bool { return u.OTP == otp })
}

func (s *UserMemoryRepository) SetOTP(ctx context.Context, id, otp string, expiresAt time.Time) error {
	return s.update(ctx, id, func(u *model.User) bool {
		u.OTP = otp
		u.OTPExpiresAt = &expiresAt
		return true
	})
}

func (s *UserMemoryRepository) ResetPassword(ctx context.Context, id, otp, passwordHash string) error {
	return s.update(ctx, id, func(u *model.User) bool {
		if otp == "" || u.OTP != otp {
			return false
		}
		u.PasswordHash = passwordHash
		u.OTP = ""
		u.OTPExpiresAt = nil
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
		return true
	})
}

func (s *UserMemoryRepository) RecordLoginFailure(
	ctx context.Context,
	id string,
	maxAttempts int,
	lockUntil time.Time,
) (*model.User, error) {
	err := s.update(ctx, id, func(u *model.User) bool {
		u.FailedLoginAttempts++
		if u.FailedLoginAttempts >= maxAttempts {
			u.LockedUntil = &lockUntil
			u.FailedLoginAttempts = 0
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, id)
}

func (s *UserMemoryRepository) ResetLoginFailures(ctx context.Context, id string) error {
	return s.update(ctx, id, func(u *model.User) bool {
		u.FailedLoginAttempts = 0
		u.LockedUntil = nil
		return true
	})
}

func (s *UserMemoryRepository) find(ctx context.Context, match func(model.User) bool) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			result := cloneUser(user)
			return &result, nil
		}
	}

	return nil, ErrUserNotFound
}

// update applies fn under the write lock. fn returning false means the
// update's precondition did not hold and nothing is written.
func (s *UserMemoryRepository) update(ctx context.Context, id string, fn func(*model.User) bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[objectID]
	if !ok {
		return ErrUserNotFound
	}

	user = cloneUser(user)
	if !fn(&user) {
		return ErrUserNotFound
	}
	user.UpdatedAt = time.Now()
	s.users[objectID] = user

	return nil
}

func cloneUser(u model.User) model.User {
	if u.OTPExpiresAt != nil {
		t := *u.OTPExpiresAt
		u.OTPExpiresAt = &t
	}
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		u.LockedUntil = &t
	}
	return u
}

// RevokedTokenMemoryRepository is an in-process token denylist.
type RevokedTokenMemoryRepository struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	now    func() time.Time
}

func NewRevokedTokenMemoryRepository() *RevokedTokenMemoryRepository {
	return &RevokedTokenMemoryRepository{
		tokens: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (s *RevokedTokenMemoryRepository) RevokeToken(ctx context.Context, token *model.RevokedToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for jti, expiresAt := range s.tokens {
		if !expiresAt.After(now) {
			delete(s.tokens, jti)
		}
	}

	if token.ExpiresAt.After(now) {
		s.tokens[token.JTI] = token.ExpiresAt
	}

	return nil
}

func (s *RevokedTokenMemoryRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.tokens[jti]
	return ok && expiresAt.After(s.now()), nil
}

var (
	_ UserRepository         = (*UserMemoryRepository)(nil)
	_ RevokedTokenRepository = (*RevokedTokenMemoryRepository)(nil)
)
