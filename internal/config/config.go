// Package config loads supervisor configuration from defaults, an optional
// YAML file, and SHIELDOPS_* environment variables, in increasing precedence.
package config

import (
	"fmt"

	"github.com/shieldops/shieldops/internal/core"
)

// Config is the full configuration surface.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
	State  StateConfig  `mapstructure:"state"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Rules  RulesConfig  `mapstructure:"rules"`
	Notify NotifyConfig `mapstructure:"notify"`
	Events EventsConfig `mapstructure:"events"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // auto, text, json
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StateConfig configures session persistence.
type StateConfig struct {
	Backend string `mapstructure:"backend"` // json or sqlite
	Path    string `mapstructure:"path"`
}

// LLMConfig configures the structured-decision client. With Enabled false
// every decision stays rule-based.
type LLMConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Provider       string `mapstructure:"provider"`
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	MaxTokens      int    `mapstructure:"max_tokens"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RulesConfig configures the decision rule table.
type RulesConfig struct {
	// Path to a YAML rule file. Empty uses the built-in defaults.
	Path string `mapstructure:"path"`
	// Watch reloads the file on change.
	Watch bool `mapstructure:"watch"`
}

// NotifyConfig configures escalation delivery. Empty values fall back to
// log-only delivery.
type NotifyConfig struct {
	SlackWebhookURL     string `mapstructure:"slack_webhook_url"`
	SlackChannel        string `mapstructure:"slack_channel"`
	PagerDutyRoutingKey string `mapstructure:"pagerduty_routing_key"`
}

// EventsConfig configures the internal event bus.
type EventsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.ErrConfig(core.CodeInvalidConfig,
			fmt.Sprintf("server port %d outside [1, 65535]", c.Server.Port))
	}
	switch c.State.Backend {
	case "json", "sqlite":
	default:
		return core.ErrConfig(core.CodeInvalidConfig,
			"state backend must be json or sqlite, got "+c.State.Backend)
	}
	if c.State.Path == "" {
		return core.ErrConfig(core.CodeInvalidConfig, "state path is required")
	}
	if c.LLM.Enabled {
		if c.LLM.Provider == "" {
			return core.ErrConfig(core.CodeInvalidConfig, "llm.provider is required when llm is enabled")
		}
		if c.LLM.Model == "" {
			return core.ErrConfig(core.CodeInvalidConfig, "llm.model is required when llm is enabled")
		}
	}
	if c.Events.BufferSize < 1 {
		return core.ErrConfig(core.CodeInvalidConfig, "events buffer_size must be positive")
	}
	return nil
}
