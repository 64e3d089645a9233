package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log is the shared logger used throughout the project.
var Log = log.Logger

var format = "console"

// Configure sets the global log level and rebuilds Log for the current format.
// The level string is tolerant of case and common synonyms.
func Configure(level string) {
	zerolog.SetGlobalLevel(parseLevel(level))
	Log = newLogger(os.Stderr)
}

// SetFormat selects "console" (human-readable, the default) or "json" output.
// Unknown values fall back to console.
func SetFormat(f string) {
	switch strings.ToLower(strings.TrimSpace(f)) {
	case "json":
		format = "json"
	default:
		format = "console"
	}
	Log = newLogger(os.Stderr)
}

// Component returns a child logger tagged with the given component name.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}

func newLogger(w io.Writer) zerolog.Logger {
	if format == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	return log.Output(zerolog.ConsoleWriter{Out: w})
}

// parseLevel converts a string to a zerolog level.
// Accepts: all, trace, debug, info, warn, warning, error, fatal, none.
// Unknown values default to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "all", "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "none", "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func init() {
	if os.Getenv("LOG_FORMAT") != "" {
		SetFormat(os.Getenv("LOG_FORMAT"))
	}
	Configure(os.Getenv("LOG_LEVEL"))
}
