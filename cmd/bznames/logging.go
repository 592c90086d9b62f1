package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/log"
)

// parseLevel maps a config log level to a charm log level.
func parseLevel(level string) (log.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel, true
	case "info", "":
		return log.InfoLevel, true
	case "warn":
		return log.WarnLevel, true
	case "error":
		return log.ErrorLevel, true
	default:
		return log.InfoLevel, false
	}
}

// newLogger returns a slog.Logger backed by a charm log handler writing to w.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, _ := parseLevel(level)
	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "bznames",
		Level:           lvl,
		ReportTimestamp: true,
		Formatter:       log.TextFormatter,
	})
	return slog.New(handler)
}
