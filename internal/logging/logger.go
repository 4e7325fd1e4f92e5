package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the service logger. Development gets a console writer and debug level.
func New(appEnv string) zerolog.Logger {
	return NewWithWriter(appEnv, os.Stdout)
}

func NewWithWriter(appEnv string, out io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	development := isDevelopment(appEnv)
	if development {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "detailsync").
		Logger()

	if development {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger
}

// GormWriter adapts a zerolog logger to gorm's logger.Writer.
type GormWriter struct {
	logger zerolog.Logger
}

func NewGormWriter(logger zerolog.Logger) *GormWriter {
	return &GormWriter{logger: logger.With().Str("component", "gorm").Logger()}
}

func (writer *GormWriter) Printf(format string, args ...any) {
	writer.logger.Warn().Msgf(strings.TrimSpace(format), args...)
}

func isDevelopment(appEnv string) bool {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "development", "dev", "local":
		return true
	default:
		return false
	}
}
