// Package telemetry provides structured logging setup and Prometheus metrics
// for the module registry. Metrics are registered against the default registry
// and served on a dedicated side-channel port by cmd/server, never by the API
// router itself.
package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger configures the global slog default logger from the logging
// section of the application configuration.
//
// format: "json" selects JSONHandler (machine readable, production default);
// anything else selects TextHandler. level accepts "debug", "info", "warn",
// "error" (case-insensitive) and defaults to "info".
//
// The logger is installed as the process default so slog.Info/Warn/Error calls
// anywhere in the application pick it up without threading a *slog.Logger.
func SetupLogger(format, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug, // file:line only when debugging
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
