package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/handler"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/notification"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/otp"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/ticket-booking-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/ticket-booking-api/shared/auth"
	"github.com/vasapolrittideah/ticket-booking-api/shared/logger"
	"github.com/vasapolrittideah/ticket-booking-api/shared/mailer"
	"github.com/vasapolrittideah/ticket-booking-api/shared/security"
	"github.com/vasapolrittideah/ticket-booking-api/shared/validator"
)

func main() {
	cfg, err := config.NewAuthServiceConfig()
	if err != nil {
		logger.NewLogger("auth-service", "info", "production").Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.NewLogger(cfg.Name, cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient := connectMongo(ctx, cfg, log)
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()
	db := mongoClient.Database(cfg.Mongo.Database)

	userRepo := repository.NewUserMongoRepository(ctx, log, db)
	revokedTokenRepo, closeDenylist := newRevokedTokenRepository(ctx, cfg, log, db)
	defer closeDenylist()

	jwtAuth, err := auth.NewJWTAuthenticator(cfg.JWT())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token authenticator")
	}

	otpManager, err := otp.NewManager(userRepo, otp.Config{Digits: cfg.OTP.Digits, TTL: cfg.OTP.ExpiresIn})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create otp manager")
	}

	v, err := validator.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create request validator")
	}

	var sender mailer.Sender
	switch cfg.MailerDriver {
	case config.MailerDriverLog:
		sender = mailer.NewLogSender(log)
	default:
		sender = mailer.NewMailer(log)
	}

	m := metrics.New()
	hasher := security.DefaultHasher()

	authUsecase := usecase.NewAuthUsecase(userRepo, revokedTokenRepo, hasher, jwtAuth, cfg.Lockout, m)
	passwordResetUsecase := usecase.NewPasswordResetUsecase(
		userRepo,
		otpManager,
		hasher,
		notification.NewOTPMailer(sender, cfg.AppName),
		m,
		log,
	)

	authHandler := handler.NewAuthHTTPHandler(authUsecase, passwordResetUsecase, v, log)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewRouter(authHandler, m, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down HTTP server")
	}
}

func connectMongo(ctx context.Context, cfg *config.AuthServiceConfig, log *zerolog.Logger) *mongo.Client {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}

	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
	return client
}

func newRevokedTokenRepository(
	ctx context.Context,
	cfg *config.AuthServiceConfig,
	log *zerolog.Logger,
	db *mongo.Database,
) (repository.RevokedTokenRepository, func()) {
	switch cfg.DenylistBackend {
	case config.DenylistBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to ping Redis")
		}

		return repository.NewRevokedTokenRedisRepository(client), func() {
			if err := client.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis client")
			}
		}
	case config.DenylistBackendMemory:
		log.Warn().Msg("using in-memory token denylist, revocations are lost on restart")
		return repository.NewRevokedTokenMemoryRepository(), func() {}
	default:
		return repository.NewRevokedTokenMongoRepository(ctx, log, db), func() {}
	}
}
