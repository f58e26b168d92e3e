package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type contextKey string

const loggerKey contextKey = "logger"

// New creates the process-wide structured logger. The level is taken
// from LOG_LEVEL (debug/info/warn/error), defaulting to info. Set
// LOG_FORMAT=json to disable the console writer.
func New() zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	if os.Getenv("LOG_FORMAT") == "json" {
		out = os.Stdout
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// NewWithWriter creates a logger writing to w, used by tests.
func NewWithWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// WithContext attaches the logger to the context.
func WithContext(ctx context.Context, log zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext retrieves the logger from the context, falling back to a
// default logger when none was attached.
func FromContext(ctx context.Context) zerolog.Logger {
	if log, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return log
	}
	return New()
}
