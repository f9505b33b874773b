package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/ticket-booking-api/shared/auth"
)

const (
	DenylistBackendMongo  = "mongo"
	DenylistBackendRedis  = "redis"
	DenylistBackendMemory = "memory"

	MailerDriverSMTP = "smtp"
	MailerDriverLog  = "log"
)

// AuthServiceConfig holds the runtime settings of the auth service.
type AuthServiceConfig struct {
	Name            string `env:"AUTH_SERVICE_NAME"      envDefault:"auth-service"`
	AppName         string `env:"APP_NAME"               envDefault:"BookMyShow"`
	HTTPAddr        string `env:"AUTH_SERVICE_HTTP_ADDR" envDefault:":8080"`
	Environment     string `env:"APP_ENV"                envDefault:"development"`
	LogLevel        string `env:"LOG_LEVEL"              envDefault:"info"`
	DenylistBackend string `env:"DENYLIST_BACKEND"       envDefault:"mongo"`
	MailerDriver    string `env:"MAILER_DRIVER"          envDefault:"smtp"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Mongo   MongoConfig   `envPrefix:"MONGO_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Token   TokenConfig   `envPrefix:"JWT_"`
	OTP     OTPConfig     `envPrefix:"OTP_"`
	Lockout LockoutConfig `envPrefix:"LOGIN_"`
}

// MongoConfig holds the credential store connection settings.
type MongoConfig struct {
	URI            string        `env:"URI"             envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE"        envDefault:"bookmyshow"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// RedisConfig holds the token denylist connection settings when DENYLIST_BACKEND=redis.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"       envDefault:"0"`
}

// TokenConfig holds the session token settings.
type TokenConfig struct {
	Secret    string        `env:"SECRET,required"`
	Issuer    string        `env:"ISSUER"     envDefault:"ticket-booking-api"`
	Audience  string        `env:"AUDIENCE"   envDefault:"ticket-booking-api"`
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"24h"`
	Leeway    time.Duration `env:"LEEWAY"     envDefault:"0s"`
}

// OTPConfig holds the password reset code settings.
type OTPConfig struct {
	Digits    int           `env:"DIGITS"     envDefault:"6"`
	ExpiresIn time.Duration `env:"EXPIRES_IN" envDefault:"10m"`
}

// LockoutConfig holds the failed login lockout settings.
type LockoutConfig struct {
	MaxAttempts int           `env:"MAX_ATTEMPTS"     envDefault:"5"`
	Duration    time.Duration `env:"LOCKOUT_DURATION" envDefault:"15m"`
}

// NewAuthServiceConfig parses the configuration from environment variables and validates it.
func NewAuthServiceConfig() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// JWT returns the settings for the token authenticator.
func (c *AuthServiceConfig) JWT() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:   c.Token.Secret,
		Issuer:   c.Token.Issuer,
		Audience: c.Token.Audience,
		TTL:      c.Token.ExpiresIn,
		Leeway:   c.Token.Leeway,
	}
}

func (c *AuthServiceConfig) validate() error {
	var errs []error

	if len(c.Token.Secret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", auth.MinSecretLength))
	}
	if c.Token.ExpiresIn <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN must be positive"))
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > auth.MaxLeeway {
		errs = append(errs, fmt.Errorf("JWT_LEEWAY must be between 0 and %s", auth.MaxLeeway))
	}
	if c.OTP.Digits < 5 || c.OTP.Digits > 6 {
		errs = append(errs, errors.New("OTP_DIGITS must be 5 or 6"))
	}
	if c.OTP.ExpiresIn <= 0 {
		errs = append(errs, errors.New("OTP_EXPIRES_IN must be positive"))
	}
	if c.Lockout.MaxAttempts < 1 {
		errs = append(errs, errors.New("LOGIN_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Lockout.Duration <= 0 {
		errs = append(errs, errors.New("LOGIN_LOCKOUT_DURATION must be positive"))
	}
	if c.Mongo.URI == "" || c.Mongo.Database == "" {
		errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required"))
	}

	switch c.DenylistBackend {
	case DenylistBackendMongo, DenylistBackendRedis, DenylistBackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DENYLIST_BACKEND %q", c.DenylistBackend))
	}

	switch c.MailerDriver {
	case MailerDriverSMTP, MailerDriverLog:
	default:
		errs = append(errs, fmt.Errorf("unknown MAILER_DRIVER %q", c.MailerDriver))
	}

	return errors.Join(errs...)
}
