// Package rlog is the process-wide structured logger. It wraps a
// single zerolog.Logger so every component logs through the same
// sink and level, the way the console/http proxies in this codebase
// have always done it.
package rlog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Zero is the process-wide logger. Components take it as a package
// variable rather than a constructor argument, matching the rest of
// this codebase's logging convention; tests that need to assert on
// output replace it with a logger over a buffer.
var Zero = New("", true)

// New builds a logger writing to filepath, or to stdout when filepath
// is empty. pretty selects the human-readable console writer over
// zerolog's default compact JSON, for interactive use vs. shipping
// logs to a collector.
func New(filepath string, pretty bool) *zerolog.Logger {
	out := os.Stdout
	if filepath != "" {
		f, err := os.OpenFile(filepath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			out = f
		}
	}

	var logger zerolog.Logger
	if pretty {
		writer := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		logger = zerolog.New(writer).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return &logger
}

// Configure replaces Zero with a logger writing to filepath (stdout
// if empty) formatted per pretty, preserving the current level.
func Configure(filepath string, pretty bool) {
	level := Zero.GetLevel()
	next := New(filepath, pretty).Level(level)
	Zero = &next
}

// SetLevel reparses level and installs it on Zero. An unrecognized
// level falls back to info, matching the pre-existing behavior this
// replaces.
func SetLevel(level string) {
	parsed := parseLevel(level)
	next := Zero.Level(parsed)
	Zero = &next
}

func parseLevel(level string) zerolog.Level {
	switch level {
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
	default:
		return zerolog.InfoLevel
	}
}
