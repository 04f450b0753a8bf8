package config

import (
	"fmt"
	"log/slog"
)

// StartupMode defines how textprep behaves when an enabled backend is unreachable
type StartupMode string

const (
	// StartupModeProduction fails when an enabled cache or database can not be reached
	StartupModeProduction StartupMode = "production"

	// StartupModeDevelopment logs the failure and continues without the backend
	StartupModeDevelopment StartupMode = "development"
)

// IsProduction returns true if running in production mode.
// Unknown modes count as production.
func (m StartupMode) IsProduction() bool {
	return m != StartupModeDevelopment
}

// Tolerate decides what a backend connection failure means. In production the
// wrapped error is returned; in development it is logged and nil is returned,
// so the caller continues without the backend.
func (m StartupMode) Tolerate(backend string, err error) error {
	if err == nil {
		return nil
	}
	if m.IsProduction() {
		return fmt.Errorf("%s unavailable: %w", backend, err)
	}
	slog.Warn("backend unavailable, continuing without it", "backend", backend, "error", err)
	return nil
}
