// Package logger builds the zerolog.Logger every component takes as a
// constructor argument (no package-global mutable logger).
package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Setup builds a JSON zerolog.Logger at the given level, writing to
// stdout. The returned value is passed explicitly into every component
// that logs.
func Setup(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	return zerolog.New(os.Stdout).Level(parseLevel(level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
