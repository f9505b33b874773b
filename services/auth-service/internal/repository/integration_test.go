//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/model"
)

func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	return client.Database("bookmyshow_test")
}

func TestUserMongoRepository(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	repo := NewUserMongoRepository(ctx, &logger, setupMongo(t))

	user, err := repo.CreateUser(ctx, newTestUser("a@example.com"))
	require.NoError(t, err)
	id := user.ID.Hex()

	_, err = repo.CreateUser(ctx, newTestUser("a@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	got, err := repo.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = repo.GetUser(ctx, "000000000000000000000000")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, repo.SetOTP(ctx, id, "123456", time.Now().Add(10*time.Minute)))
	found, err := repo.GetUserByOTP(ctx, "123456")
	require.NoError(t, err)
	assert.True(t, found.HasPendingOTP())

	assert.ErrorIs(t, repo.ResetPassword(ctx, id, "999999", "new-hash"), ErrUserNotFound)
	require.NoError(t, repo.ResetPassword(ctx, id, "123456", "new-hash"))
	assert.ErrorIs(t, repo.ResetPassword(ctx, id, "123456", "again"), ErrUserNotFound)

	updated, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)
	assert.False(t, updated.HasPendingOTP())

	lockUntil := time.Now().Add(15 * time.Minute)
	first, err := repo.RecordLoginFailure(ctx, id, 2, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FailedLoginAttempts)
	assert.False(t, first.IsLocked(time.Now()))

	second, err := repo.RecordLoginFailure(ctx, id, 2, lockUntil)
	require.NoError(t, err)
	assert.True(t, second.IsLocked(time.Now()))
	assert.Equal(t, 0, second.FailedLoginAttempts)

	require.NoError(t, repo.ResetLoginFailures(ctx, id))
	cleared, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, cleared.LockedUntil)
}

func TestRevokedTokenMongoRepository(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	repo := NewRevokedTokenMongoRepository(ctx, &logger, setupMongo(t))

	token := &model.RevokedToken{JTI: "jti-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.RevokeToken(ctx, token))
	require.NoError(t, repo.RevokeToken(ctx, token))

	revoked, err := repo.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevokedTokenRedisRepository(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewRevokedTokenRedisRepository(client)

	require.NoError(t, repo.RevokeToken(ctx, &model.RevokedToken{JTI: "jti-1", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, repo.RevokeToken(ctx, &model.RevokedToken{JTI: "jti-2", ExpiresAt: time.Now().Add(-time.Minute)}))

	revoked, err := repo.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.IsTokenRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	ttl, err := client.TTL(ctx, revokedTokenKeyPrefix+"jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}
