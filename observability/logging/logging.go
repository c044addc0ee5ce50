// Package logging configures the daemon's structured logger: JSON output
// via log/slog, level selected by LOG_LEVEL, optionally rotated to disk.
// Grounded on the teacher's observability/logging.Setup, generalized to
// take a level and an optional rotating writer instead of a fixed
// stdout/info-level logger.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps LOG_LEVEL's accepted values (debug/info/warn/error) to a
// slog.Level, defaulting to info for anything else.
func ParseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RotatingFile returns a lumberjack-backed writer rotating into dir, or nil
// if dir is empty (callers fall back to stdout-only).
func RotatingFile(dir, filename string) io.Writer {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	return &lumberjack.Logger{
		Filename:   dir + "/" + filename,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
}

// Setup configures the standard library logger to emit structured JSON at
// level and returns the underlying slog.Logger. When logFile is non-nil,
// output is duplicated to both stdout and the rotating file.
func Setup(service string, level slog.Level, logFile io.Writer) *slog.Logger {
	var out io.Writer = os.Stdout
	if logFile != nil {
		out = io.MultiWriter(os.Stdout, logFile)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	base := slog.New(handler).With(slog.String("service", strings.TrimSpace(service)))
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler, level)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}
