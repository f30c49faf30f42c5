package cmd

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shieldops/shieldops/internal/adapters/notify"
	"github.com/shieldops/shieldops/internal/adapters/state"
	"github.com/shieldops/shieldops/internal/agents"
	"github.com/shieldops/shieldops/internal/config"
	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/events"
	"github.com/shieldops/shieldops/internal/llm"
	"github.com/shieldops/shieldops/internal/logging"
	"github.com/shieldops/shieldops/internal/metrics"
	"github.com/shieldops/shieldops/internal/supervisor"
	"github.com/shieldops/shieldops/internal/toolkit"
)

// runtime bundles the wired components a command needs to run sessions.
type runtime struct {
	cfg          *config.Config
	logger       *logging.Logger
	toolkit      *toolkit.Toolkit
	orchestrator *supervisor.Orchestrator
	store        core.SessionStore
	bus          *events.EventBus
	registry     *prometheus.Registry
}

// buildRuntime wires the full supervisor stack from configuration: rules,
// notifiers, agents, optional LLM client, session store, event bus, metrics.
func buildRuntime(cfg *config.Config) (*runtime, error) {
	logger := newLogger(cfg)

	rules, err := loadRuleSet(cfg)
	if err != nil {
		return nil, err
	}

	tk := toolkit.New(agents.DefaultRegistry(logger), rules,
		toolkit.WithLogger(logger),
		toolkit.WithNotifier(core.ChannelSlack, slackNotifier(cfg, logger)),
		toolkit.WithNotifier(core.ChannelPagerDuty, pagerDutyNotifier(cfg, logger)),
	)

	store, err := state.New(state.Config{
		Backend: cfg.State.Backend,
		Path:    cfg.State.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	bus := events.New(cfg.Events.BufferSize)
	registry := prometheus.NewRegistry()

	opts := []supervisor.Option{
		supervisor.WithStore(store),
		supervisor.WithEventBus(bus),
		supervisor.WithMetrics(metrics.New(registry)),
		supervisor.WithLogger(logger),
	}
	if cfg.LLM.Enabled {
		client, err := llm.NewClient(llm.Config{
			Provider:  cfg.LLM.Provider,
			Model:     cfg.LLM.Model,
			BaseURL:   cfg.LLM.BaseURL,
			APIKey:    cfg.LLM.APIKey,
			MaxTokens: cfg.LLM.MaxTokens,
			Timeout:   time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		}, llm.WithLogger(logger))
		if err != nil {
			store.Close()
			bus.Close()
			return nil, err
		}
		opts = append(opts, supervisor.WithDecisionClient(client))
		logger.Info("llm refinement enabled",
			"provider", cfg.LLM.Provider, "model", cfg.LLM.Model)
	}

	return &runtime{
		cfg:          cfg,
		logger:       logger,
		toolkit:      tk,
		orchestrator: supervisor.New(tk, opts...),
		store:        store,
		bus:          bus,
		registry:     registry,
	}, nil
}

func (r *runtime) Close() {
	r.bus.Close()
	if err := r.store.Close(); err != nil {
		r.logger.Warn("closing session store", "error", err)
	}
}

func loadRuleSet(cfg *config.Config) (*toolkit.RuleSet, error) {
	if cfg.Rules.Path == "" {
		return nil, nil
	}
	return toolkit.LoadRules(cfg.Rules.Path)
}

// slackNotifier returns the configured Slack webhook, or a log-only fallback
// so escalations are never silently dropped.
func slackNotifier(cfg *config.Config, logger *logging.Logger) toolkit.Notifier {
	if cfg.Notify.SlackWebhookURL == "" {
		return notify.NewLog(logger, core.ChannelSlack)
	}
	var opts []notify.SlackOption
	if cfg.Notify.SlackChannel != "" {
		opts = append(opts, notify.WithSlackChannel(cfg.Notify.SlackChannel))
	}
	return notify.NewSlack(cfg.Notify.SlackWebhookURL, opts...)
}

func pagerDutyNotifier(cfg *config.Config, logger *logging.Logger) toolkit.Notifier {
	if cfg.Notify.PagerDutyRoutingKey == "" {
		return notify.NewLog(logger, core.ChannelPagerDuty)
	}
	return notify.NewPagerDuty(cfg.Notify.PagerDutyRoutingKey)
}

// openStore opens just the session store, for commands that only read or
// delete persisted sessions.
func openStore(cfg *config.Config) (core.SessionStore, error) {
	return state.New(state.Config{
		Backend: cfg.State.Backend,
		Path:    cfg.State.Path,
	})
}
