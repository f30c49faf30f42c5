package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/shieldops/shieldops/internal/core"
)

// envPrefix is the environment variable prefix, e.g. SHIELDOPS_SERVER_PORT.
const envPrefix = "SHIELDOPS"

// Load reads configuration. path names an explicit config file; empty path
// searches for .shieldops.yaml in the working directory, $HOME, and
// $HOME/.config/shieldops. A missing file is fine, defaults and environment
// apply regardless.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.ErrConfig(core.CodeInvalidConfig, "reading config file "+path).WithCause(err)
		}
	} else {
		v.SetConfigName(".shieldops")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.AddConfigPath("$HOME/.config/shieldops")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, core.ErrConfig(core.CodeInvalidConfig, "reading config file").WithCause(err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.ErrConfig(core.CodeInvalidConfig, "unmarshaling config").WithCause(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8440)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("state.backend", "sqlite")
	v.SetDefault("state.path", ".shieldops/sessions.db")

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "llama3")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.timeout_seconds", 60)

	v.SetDefault("rules.path", "")
	v.SetDefault("rules.watch", false)

	v.SetDefault("events.buffer_size", 256)
}
