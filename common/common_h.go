package common

import (
	"github.com/rs/zerolog"
)

// Log levels accepted by GetNewLogger
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
	LevelOff   = "off"
)

// Logger wraps zerolog logger to keep single logging entry point for the whole tool
type Logger struct {
	zerolog.Logger
}
