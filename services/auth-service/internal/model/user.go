package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role is the access level of an account.
type Role string

const (
	RoleUser    Role = "user"
	RolePartner Role = "partner"
	RoleAdmin   Role = "admin"
)

// User represents an account in the authentication system.
// OTP and OTPExpiresAt are set and cleared together while a password reset is pending.
type User struct {
	ID                  bson.ObjectID `bson:"_id,omitempty"`
	Name                string        `bson:"name"`
	Email               string        `bson:"email"`
	Role                Role          `bson:"role"`
	PasswordHash        string        `bson:"password_hash"`
	OTP                 string        `bson:"otp,omitempty"`
	OTPExpiresAt        *time.Time    `bson:"otp_expires_at,omitempty"`
	FailedLoginAttempts int           `bson:"failed_login_attempts"`
	LockedUntil         *time.Time    `bson:"locked_until,omitempty"`
	CreatedAt           time.Time     `bson:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at"`
}

// HasPendingOTP reports whether a password reset code is outstanding.
func (u *User) HasPendingOTP() bool {
	return u.OTP != "" && u.OTPExpiresAt != nil
}

// IsLocked reports whether logins are blocked at the given time.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// Profile is the public view of a User. It never carries credentials.
type Profile struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile returns the public profile of the user.
func (u *User) Profile() *Profile {
	return &Profile{
		ID:        u.ID.Hex(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
