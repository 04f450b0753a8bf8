// Package envutil reads typed environment variables. Every getter returns the
// fallback when the variable is unset, so callers can layer env over a value
// already loaded from file.
package envutil

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetStringEnv returns the variable, or fallback when it is unset or empty.
func GetStringEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// GetIntEnv parses an integer variable. Invalid values are logged and ignored.
func GetIntEnv(key string, fallback int) int {
	return parse(key, fallback, strconv.Atoi)
}

// GetBoolEnv parses "true"/"1" and "false"/"0", case-insensitively. Invalid
// values are logged and ignored.
func GetBoolEnv(key string, fallback bool) bool {
	return parse(key, fallback, func(val string) (bool, error) {
		switch strings.ToLower(val) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, strconv.ErrSyntax
	})
}

// GetDurationEnv parses a time.ParseDuration value such as "90s" or "24h".
// Invalid values are logged and ignored.
func GetDurationEnv(key string, fallback time.Duration) time.Duration {
	return parse(key, fallback, time.ParseDuration)
}

func parse[T any](key string, fallback T, fn func(string) (T, error)) T {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := fn(val)
	if err != nil {
		slog.Warn("ignoring invalid environment variable",
			"key", key,
			"value", val,
			"fallback", fallback)
		return fallback
	}
	return parsed
}
