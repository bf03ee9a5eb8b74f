package log

import (
	"log/slog"
	"strings"
)

// Level is the minimum severity a logger emits. It is a thin veneer over
// slog.Level so handler options take it directly.
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

func (l Level) String() string {
	return slog.Level(l).String()
}

// ToSlogLevel converts to the underlying slog level
func (l Level) ToSlogLevel() slog.Level {
	return slog.Level(l)
}

// ParseLevel maps a configuration string to a Level. Unknown values fall
// back to info rather than failing: a misspelled log level must never
// break a build.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
