// Package logging builds the structured logger and the domain event helpers.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Event names carried in the "event" attribute.
const (
	EventURLCreated        = "url_created"
	EventURLAccessed       = "url_accessed"
	EventUserActivity      = "user_activity"
	EventRateLimitExceeded = "rate_limit_exceeded"
	EventValidationError   = "validation_error"
	EventUnhandledError    = "unhandled_error"
	EventHTTPRequest       = "http_request"
)

// New returns a JSON (or text) logger writing to w at the given level.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

// Discard is a logger for tests and tools that want silence.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// URLCreated logs a new short link.
func URLCreated(log *slog.Logger, code, username string) {
	log.Info("URL shortened", "event", EventURLCreated, "code", code, "username", username)
}

// URLAccessed logs a resolve with the count it produced.
func URLAccessed(log *slog.Logger, code string, clicks int64) {
	log.Info("URL accessed", "event", EventURLAccessed, "code", code, "clicks", clicks)
}

// UserActivity logs register/login/logout. Never pass credentials here.
func UserActivity(log *slog.Logger, username, action string) {
	log.Info("User activity", "event", EventUserActivity, "username", username, "action", action)
}
