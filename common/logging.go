// Package common holds project-wide constants and logger setup shared by the
// CLI and the agent API server.
package common

import (
	"log/slog"
	"os"
)

type LoggingOpts struct {
	// Debug lowers the log level to debug.
	Debug bool

	// JSON selects JSON log output instead of text.
	JSON bool

	// Service is added as a 'service' attribute to every record when set.
	Service string

	// Version is added as a 'version' attribute to every record when set.
	Version string
}

// SetupLogger creates the process logger on stderr. Stdout stays reserved for
// command output such as addresses and receipts.
func SetupLogger(opts *LoggingOpts) (log *slog.Logger) {
	logLevel := slog.LevelInfo
	if opts.Debug {
		logLevel = slog.LevelDebug
	}

	if opts.JSON {
		log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	} else {
		log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}

	if opts.Service != "" {
		log = log.With("service", opts.Service)
	}
	if opts.Version != "" {
		log = log.With("version", opts.Version)
	}
	return log
}
