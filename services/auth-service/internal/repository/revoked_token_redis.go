package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
)

const revokedTokenKeyPrefix = "revoked_token:"

type revokedTokenRedisRepository struct {
	client redis.UniversalClient
}

// NewRevokedTokenRedisRepository creates a Redis backed token denylist.
// Entries expire with the token they revoke.
func NewRevokedTokenRedisRepository(client redis.UniversalClient) RevokedTokenRepository {
	return &revokedTokenRedisRepository{client: client}
}

func (r *revokedTokenRedisRepository) RevokeToken(ctx context.Context, token *model.RevokedToken) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	return r.client.Set(ctx, revokedTokenKeyPrefix+token.JTI, token.UserID, ttl).Err()
}

func (r *revokedTokenRedisRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedTokenKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
