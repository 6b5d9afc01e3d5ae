// Package logging builds the slog logger bibfix writes to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Options describes logger construction parameters.
type Options struct {
	Level  string
	Format string
	Writer io.Writer
}

// New constructs a slog logger backed by a charmbracelet handler.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Writer == nil {
		return slog.New(slog.DiscardHandler), nil
	}

	var formatter charmlog.Formatter
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "console", "":
		formatter = charmlog.TextFormatter
	case "json":
		formatter = charmlog.JSONFormatter
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	handler := charmlog.NewWithOptions(opts.Writer, charmlog.Options{
		Level:           charmlog.Level(level),
		Formatter:       formatter,
		ReportTimestamp: formatter == charmlog.JSONFormatter,
		TimeFormat:      time.RFC3339,
	})
	return slog.New(handler), nil
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log level: unsupported value %q", level)
}
