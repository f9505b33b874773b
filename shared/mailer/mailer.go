package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"gopkg.in/gomail.v2"
)

var ErrNoRecipients = errors.New("no recipients specified")

// Sender delivers an email.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// Email represents an email message.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer represents an SMTP email sender.
type Mailer struct {
	config *mailerConfig
	dialer dialer
	logger *zerolog.Logger
}

// NewMailer creates a new Mailer instance configured from SMTP_* environment variables.
func NewMailer(logger *zerolog.Logger) *Mailer {
	cfg := newMailerConfig(logger)

	if err := cfg.validate(); err != nil {
		logger.Fatal().Err(err).Msg("failed to validate Mailer configuration")
	}

	return newMailer(cfg, gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), logger)
}

func newMailer(cfg *mailerConfig, d dialer, logger *zerolog.Logger) *Mailer {
	return &Mailer{
		config: cfg,
		dialer: d,
		logger: logger,
	}
}

// Send sends a single email, retrying transient SMTP failures with exponential backoff.
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	msg := gomail.NewMessage()
	m.setEmailMessage(msg, email)

	backoff := retry.WithMaxRetries(m.config.MaxRetries, retry.NewExponential(m.config.RetryBase))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := m.dialer.DialAndSend(msg); err != nil {
			m.logger.Warn().Err(err).Int("attempt", attempt).Msg("failed to send email")
			if isTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to send email after %d attempts: %w", attempt, err)
	}

	return nil
}

// isTransient reports whether a send failure may succeed on a later attempt:
// network errors and 4xx SMTP replies. 5xx replies and anything else are permanent.
func isTransient(err error) bool {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return protoErr.Code >= 400 && protoErr.Code < 500
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func (m *Mailer) setEmailMessage(msg *gomail.Message, email Email) {
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", email.To...)
	msg.SetHeader("Subject", email.Subject)

	if email.HTMLBody != "" {
		msg.SetBody("text/html", email.HTMLBody)
		if email.Body != "" {
			msg.AddAlternative("text/plain", email.Body)
		}
	} else {
		msg.SetBody("text/plain", email.Body)
	}
}

// mailerConfig holds SMTP configuration for sending emails.
type mailerConfig struct {
	Host       string        `env:"SMTP_HOST"`
	Port       int           `env:"SMTP_PORT"`
	Username   string        `env:"SMTP_USERNAME"`
	Password   string        `env:"SMTP_PASSWORD"`
	From       string        `env:"SMTP_FROM"`
	MaxRetries uint64        `env:"SMTP_MAX_RETRIES" envDefault:"2"`
	RetryBase  time.Duration `env:"SMTP_RETRY_BASE"  envDefault:"200ms"`
}

// newMailerConfig creates a mailerConfig instance from environment variables.
func newMailerConfig(logger *zerolog.Logger) *mailerConfig {
	cfg, err := env.ParseAs[mailerConfig]()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse environment variables")
	}

	return &cfg
}

// validate checks if the Mailer configuration is valid.
func (c *mailerConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if c.Port == 0 {
		return fmt.Errorf("missing SMTP_PORT environment variable")
	}
	if c.Username == "" {
		return fmt.Errorf("missing SMTP_USERNAME environment variable")
	}
	if c.Password == "" {
		return fmt.Errorf("missing SMTP_PASSWORD environment variable")
	}
	if c.From == "" {
		return fmt.Errorf("missing SMTP_FROM environment variable")
	}
	if c.RetryBase <= 0 {
		return fmt.Errorf("SMTP_RETRY_BASE must be positive")
	}

	return nil
}
