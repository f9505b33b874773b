package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
)

// RevokedTokenRepository defines the interface for the session token denylist.
type RevokedTokenRepository interface {
	// RevokeToken adds a token to the denylist until it expires. Revoking the
	// same token twice is not an error.
	RevokeToken(ctx context.Context, token *model.RevokedToken) error

	// IsTokenRevoked reports whether the token with the given JTI was revoked.
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

const revokedTokenCollection = "revoked_tokens"

type revokedTokenMongoRepository struct {
	db *mongo.Database
}

// NewRevokedTokenMongoRepository creates a new MongoDB repository for revoked tokens.
func NewRevokedTokenMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) RevokedTokenRepository {
	collection := db.Collection(revokedTokenCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create revoked token indexes")
	}

	return &revokedTokenMongoRepository{
		db: db,
	}
}

func (r *revokedTokenMongoRepository) RevokeToken(ctx context.Context, token *model.RevokedToken) error {
	token.CreatedAt = time.Now()

	_, err := r.db.Collection(revokedTokenCollection).InsertOne(ctx, token)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}

	return nil
}

// The TTL monitor runs about once a minute, so expired entries are filtered out explicitly.
func (r *revokedTokenMongoRepository) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	filter := bson.M{
		"_id":        jti,
		"expires_at": bson.M{"$gt": time.Now()},
	}

	count, err := r.db.Collection(revokedTokenCollection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
