package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
)

// UserRepository defines the interface for credential store operations.
// Emails are expected to be normalized by the caller.
type UserRepository interface {
	// CreateUser inserts a new user. Returns ErrDuplicateEmail if the email is taken.
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)

	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetUserByOTP finds the user whose pending reset code equals otp.
	GetUserByOTP(ctx context.Context, otp string) (*model.User, error)

	// SetOTP stores a reset code and its expiry, replacing any pending code.
	SetOTP(ctx context.Context, id, otp string, expiresAt time.Time) error

	// ResetPassword replaces the password hash and clears the reset code and
	// lockout state in one update. It only applies while otp is still the
	// pending code; otherwise it returns ErrUserNotFound.
	ResetPassword(ctx context.Context, id, otp, passwordHash string) error

	// RecordLoginFailure increments the failed login counter. When the counter
	// reaches maxAttempts the user is locked until lockUntil and the counter restarts.
	RecordLoginFailure(ctx context.Context, id string, maxAttempts int, lockUntil time.Time) (*model.User, error)

	// ResetLoginFailures clears the failed login counter and any lock.
	ResetLoginFailures(ctx context.Context, id string) error
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates a new MongoDB repository for users.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "otp", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetUserByOTP(ctx context.Context, otp string) (*model.User, error) {
	if otp == "" {
		return nil, ErrUserNotFound
	}

	return r.findOne(ctx, bson.M{"otp": otp})
}

func (r *userMongoRepository) SetOTP(ctx context.Context, id, otp string, expiresAt time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"otp":            otp,
			"otp_expires_at": expiresAt,
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userMongoRepository) ResetPassword(ctx context.Context, id, otp, passwordHash string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	result, err := r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID, "otp": otp},
		bson.M{
			"$set": bson.M{
				"password_hash":         passwordHash,
				"failed_login_attempts": 0,
				"updated_at":            time.Now(),
			},
			"$unset": bson.M{
				"otp":            "",
				"otp_expires_at": "",
				"locked_until":   "",
			},
		},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userMongoRepository) RecordLoginFailure(
	ctx context.Context,
	id string,
	maxAttempts int,
	lockUntil time.Time,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	reachedLimit := bson.M{"$gte": bson.A{"$failed_login_attempts", maxAttempts}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"failed_login_attempts": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$failed_login_attempts", 0}}, 1}},
			"updated_at":            time.Now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"locked_until":          bson.M{"$cond": bson.A{reachedLimit, lockUntil, "$locked_until"}},
			"failed_login_attempts": bson.M{"$cond": bson.A{reachedLimit, 0, "$failed_login_attempts"}},
		}}},
	}

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		pipeline,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return decodeUser(result)
}

func (r *userMongoRepository) ResetLoginFailures(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrUserNotFound
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$set":   bson.M{"failed_login_attempts": 0, "updated_at": time.Now()},
			"$unset": bson.M{"locked_until": ""},
		},
	)
	return err
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	return decodeUser(r.db.Collection(userCollection).FindOne(ctx, filter))
}

func decodeUser(result *mongo.SingleResult) (*model.User, error) {
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
