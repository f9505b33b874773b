package model

import "time"

// RevokedToken marks a session token as unusable before its natural expiry.
// The record is only needed until ExpiresAt, after which the token is rejected anyway.
type RevokedToken struct {
	JTI       string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}
