// Package tripagent assembles the trip-planning agent server: config
// loading, tool registry construction, model gateway selection and the
// HTTP surface.
package tripagent

import (
	"fmt"
	"log/slog"
	"strings"
)

// ConfigError reports missing or invalid configuration detected at
// startup or while building a request pipeline. It never enters the turn
// loop; the whole request fails instead.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "configuration error: " + e.Message }

// ParseLogLevel converts a case-insensitive string to an slog.Level.
// Empty input means Info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: debug, info, warn, error)", s)
	}
}
