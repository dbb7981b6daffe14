package common

import (
	"io"
	"os"
	"strings"
	"time"

	guuid "github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GetNewLogger creates console logger writing to stderr with the provided level
func GetNewLogger(level string) *Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates console logger writing into w
func NewLoggerWithWriter(level string, w io.Writer) *Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	l := zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
	return &Logger{Logger: l}
}

// NopLogger discards everything, used in tests and library calls without logger
func NopLogger() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// ParseLevel maps textual level to zerolog one, info is the default
func ParseLevel(level string) zerolog.Level {
	switch strings.TrimSpace(strings.ToLower(level)) {
	case LevelDebug, "full":
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelOff, "0":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewRunID generates unique id of a single tool invocation
func NewRunID() string {
	return guuid.NewString()
}

// Timer logs the time taken by the named step; call the returned func when the step is done
func Timer(logger *Logger, step string) func() {
	start := time.Now()
	return func() {
		logger.Info().Str("step", step).Dur("elapsed", time.Since(start)).Msg("Elapsed time")
	}
}
