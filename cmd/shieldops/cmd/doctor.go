package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shieldops/shieldops/internal/llm"
	"github.com/shieldops/shieldops/internal/toolkit"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the supervisor configuration and environment",
	Long:  "Verify that configuration, rules, storage and integrations are usable.",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	name     string
	required bool
	run      func() (string, error)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Checking shieldops setup...")
	fmt.Fprintln(out)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(out, "✗ config: %v\n", err)
		return fmt.Errorf("configuration is invalid")
	}

	checks := []doctorCheck{
		{"config", true, func() (string, error) {
			return "loaded and valid", nil
		}},
		{"session store", true, func() (string, error) {
			store, err := openStore(cfg)
			if err != nil {
				return "", err
			}
			defer store.Close()
			summaries, err := store.List(cmd.Context())
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s backend at %s (%d sessions)",
				cfg.State.Backend, cfg.State.Path, len(summaries)), nil
		}},
		{"rules", true, func() (string, error) {
			if cfg.Rules.Path == "" {
				return "built-in defaults", nil
			}
			rules, err := toolkit.LoadRules(cfg.Rules.Path)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%d classify, %d chain)",
				cfg.Rules.Path, len(rules.Classify), len(rules.Chain)), nil
		}},
		{"llm", false, func() (string, error) {
			if !cfg.LLM.Enabled {
				return "disabled, decisions stay rule-based", nil
			}
			if llm.GetProvider(cfg.LLM.Provider) == nil {
				return "", fmt.Errorf("unknown provider %q (have %s)",
					cfg.LLM.Provider, strings.Join(llm.ProviderNames(), ", "))
			}
			if cfg.LLM.APIKey == "" && cfg.LLM.Provider != "ollama" {
				return "", fmt.Errorf("provider %s needs llm.api_key", cfg.LLM.Provider)
			}
			return fmt.Sprintf("%s / %s", cfg.LLM.Provider, cfg.LLM.Model), nil
		}},
		{"slack", false, func() (string, error) {
			if cfg.Notify.SlackWebhookURL == "" {
				return "", fmt.Errorf("no webhook configured, escalations log only")
			}
			return "webhook configured", nil
		}},
		{"pagerduty", false, func() (string, error) {
			if cfg.Notify.PagerDutyRoutingKey == "" {
				return "", fmt.Errorf("no routing key configured, escalations log only")
			}
			return "routing key configured", nil
		}},
	}

	requiredOk := true
	for _, check := range checks {
		detail, err := check.run()
		switch {
		case err == nil:
			fmt.Fprintf(out, "✓ %-14s %s\n", check.name, detail)
		case check.required:
			requiredOk = false
			fmt.Fprintf(out, "✗ %-14s %v\n", check.name, err)
		default:
			fmt.Fprintf(out, "○ %-14s %v (optional)\n", check.name, err)
		}
	}

	fmt.Fprintln(out)
	if !requiredOk {
		return fmt.Errorf("some required checks failed")
	}
	fmt.Fprintln(out, "All required checks passed.")
	return nil
}
