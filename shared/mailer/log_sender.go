package mailer

import (
	"context"

	"github.com/rs/zerolog"
)

// LogSender writes emails to the log instead of delivering them. Used in development.
type LogSender struct {
	logger *zerolog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger *zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, email Email) error {
	if len(email.To) == 0 {
		return ErrNoRecipients
	}

	body := email.Body
	if body == "" {
		body = email.HTMLBody
	}

	s.logger.Info().
		Strs("to", email.To).
		Str("subject", email.Subject).
		Str("body", body).
		Msg("email not delivered, log mailer in use")

	return nil
}
