package agents

import (
	"context"
	"fmt"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/logging"
)

func getString(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

// InvestigationRunner correlates the signals attached to an event into a
// root-cause hypothesis.
type InvestigationRunner struct {
	logger *logging.Logger
}

// NewInvestigationRunner creates the investigation agent.
func NewInvestigationRunner(logger *logging.Logger) *InvestigationRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &InvestigationRunner{logger: logger.WithAgent("investigation-runner")}
}

func (a *InvestigationRunner) Name() string            { return "investigation-runner" }
func (a *InvestigationRunner) TaskType() core.TaskType { return core.TaskTypeInvestigation }

// Run reviews the event signals and produces findings.
func (a *InvestigationRunner) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	eventType := getString(input, core.EventKeyType)
	resource := getString(input, core.EventKeyResourceID)
	a.logger.Info("investigating", "event_type", eventType, "resource", resource)

	cause := "unknown"
	switch eventType {
	case "disk_full":
		cause = "log growth outpaced rotation"
	case "service_down":
		cause = "process crash or dependency outage"
	case "intrusion_detected", "suspicious_login":
		cause = "possible credential compromise"
	case "high_latency":
		cause = "resource saturation or downstream slowdown"
	}
	return map[string]any{
		"summary":          fmt.Sprintf("reviewed %d signals for %s", len(input), eventType),
		"signals_reviewed": len(input),
		"suspected_cause":  cause,
		"resource_id":      resource,
	}, nil
}

// RemediationRunner applies a known playbook for the event type. Events
// without a playbook fail the task, which is valid data for the supervisor.
type RemediationRunner struct {
	logger    *logging.Logger
	playbooks map[string]string
}

// NewRemediationRunner creates the remediation agent with its default
// playbook table.
func NewRemediationRunner(logger *logging.Logger) *RemediationRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RemediationRunner{
		logger: logger.WithAgent("remediation-runner"),
		playbooks: map[string]string{
			"disk_full":        "prune_logs_and_rotate",
			"service_down":     "restart_service",
			"high_latency":     "scale_out_replicas",
			"cert_expiring":    "renew_certificate",
			"config_drift":     "reapply_baseline_config",
			"suspicious_login": "lock_account_and_rotate_keys",
		},
	}
}

func (a *RemediationRunner) Name() string            { return "remediation-runner" }
func (a *RemediationRunner) TaskType() core.TaskType { return core.TaskTypeRemediation }

// Run executes the playbook matching the event type.
func (a *RemediationRunner) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	eventType := getString(input, core.EventKeyType)
	playbook, ok := a.playbooks[eventType]
	if !ok {
		return nil, fmt.Errorf("no remediation playbook for event type %q", eventType)
	}
	a.logger.Info("applying playbook", "event_type", eventType, "playbook", playbook)
	return map[string]any{
		"playbook":    playbook,
		"applied":     true,
		"resource_id": getString(input, core.EventKeyResourceID),
	}, nil
}

// SecurityScanRunner sweeps the affected resource for indicators of
// compromise.
type SecurityScanRunner struct {
	logger *logging.Logger
}

// NewSecurityScanRunner creates the security scan agent.
func NewSecurityScanRunner(logger *logging.Logger) *SecurityScanRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SecurityScanRunner{logger: logger.WithAgent("security-scan-runner")}
}

func (a *SecurityScanRunner) Name() string            { return "security-scan-runner" }
func (a *SecurityScanRunner) TaskType() core.TaskType { return core.TaskTypeSecurityScan }

// Run scans the resource named by the event.
func (a *SecurityScanRunner) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	eventType := getString(input, core.EventKeyType)
	resource := getString(input, core.EventKeyResourceID)
	a.logger.Info("scanning", "event_type", eventType, "resource", resource)

	findings := []string{}
	if eventType == "intrusion_detected" || eventType == "suspicious_login" {
		findings = append(findings, "anomalous access pattern on "+orUnknown(resource))
	}
	return map[string]any{
		"scanned_resource": orUnknown(resource),
		"findings":         findings,
		"clean":            len(findings) == 0,
	}, nil
}

// MonitoringRunner places a watch on the affected resource.
type MonitoringRunner struct {
	logger *logging.Logger
}

// NewMonitoringRunner creates the monitoring agent.
func NewMonitoringRunner(logger *logging.Logger) *MonitoringRunner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &MonitoringRunner{logger: logger.WithAgent("monitoring-runner")}
}

func (a *MonitoringRunner) Name() string            { return "monitoring-runner" }
func (a *MonitoringRunner) TaskType() core.TaskType { return core.TaskTypeMonitoring }

// Run registers a watch for the resource.
func (a *MonitoringRunner) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resource := orUnknown(getString(input, core.EventKeyResourceID))
	a.logger.Info("watching", "resource", resource)
	return map[string]any{
		"watching":         resource,
		"interval_seconds": 300,
		"status":           "armed",
	}, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
