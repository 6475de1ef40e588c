package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// redactedKeys are attribute keys whose values never reach the log output,
// whichever handler is configured.
var redactedKeys = map[string]struct{}{
	"secret":        {},
	"secret_key":    {},
	"settings_key":  {},
	"jwt_secret":    {},
	"password":      {},
	"authorization": {},
}

func Init(env string) {
	InitWithLevel(env, "")
}

// InitWithLevel configures the default logger. An empty level keeps the
// environment's default.
func InitWithLevel(env, level string) {
	defaultLogger = New(os.Stdout, env, level)
	slog.SetDefault(defaultLogger)
}

// New builds a logger writing to w: JSON in production, text otherwise.
func New(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug, ReplaceAttr: redact}
	if env == "production" {
		opts.Level = slog.LevelInfo
	}
	if lvl, ok := parseLevel(level); ok {
		opts.Level = lvl
	}

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init("development")
	}
	return defaultLogger
}

func redact(groups []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
