package state

import (
	"github.com/shieldops/shieldops/internal/core"
)

// Config selects a persistence backend.
type Config struct {
	// Backend is "json" or "sqlite".
	Backend string
	// Path is the session directory (json) or database file (sqlite).
	Path string
}

// New creates the configured session store.
func New(cfg Config) (core.SessionStore, error) {
	switch cfg.Backend {
	case "json":
		return NewJSONStore(cfg.Path)
	case "sqlite", "":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, core.ErrConfig(core.CodeInvalidConfig,
			"unknown state backend "+cfg.Backend+" (want json or sqlite)")
	}
}
