package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates the service logger. Development environments get a
// human-readable console writer; everything else logs JSON to stdout.
func NewLogger(service, level, environment string) *zerolog.Logger {
	return newLogger(os.Stdout, service, level, environment)
}

func newLogger(w io.Writer, service, level, environment string) *zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if environment == "development" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	return &logger
}
