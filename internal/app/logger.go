package app

import (
	"log/slog"
	"os"
)

// Attribute keys whose values never reach the log output.
var redactedKeys = map[string]bool{
	"password":     true,
	"new_password": true,
	"reset_token":  true,
	"session_id":   true,
}

const redactedValue = "[REDACTED]"

// RedactAttr masks credential-bearing attributes. Installed as the
// ReplaceAttr hook on every handler so a stray log call can never leak a
// password or token.
func RedactAttr(groups []string, attr slog.Attr) slog.Attr {
	if redactedKeys[attr.Key] {
		attr.Value = slog.StringValue(redactedValue)
	}
	return attr
}

// NewLogger returns a configured slog.Logger based on configuration.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, ReplaceAttr: RedactAttr}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
