package utils

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Manhattan returns the Manhattan distance between two coordinates.
func Manhattan(x1, y1, x2, y2 int) int {
	return Abs(x2-x1) + Abs(y2-y1)
}

// NewClientID returns a fresh opaque connection identifier.
func NewClientID() string {
	return "c-" + uuid.NewString()
}

// NewPlayerID returns a fresh opaque player identifier.
func NewPlayerID() string {
	return "p-" + uuid.NewString()
}

// ParseLogLevel maps a config log level string onto slog levels.
// Unknown values fall back to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
