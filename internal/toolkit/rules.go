// Package toolkit implements the supervisor's injected capability set:
// rule-based classification and evaluation, dispatch to specialist agents,
// and escalation delivery.
package toolkit

import (
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/shieldops/shieldops/internal/core"
)

// ClassifyRule maps an event signature to a classification suggestion.
// An empty match_severity list matches any severity.
type ClassifyRule struct {
	MatchType     string   `yaml:"match_type"`
	MatchSeverity []string `yaml:"match_severity"`
	TaskType      string   `yaml:"task_type"`
	Priority      string   `yaml:"priority"`
	Confidence    float64  `yaml:"confidence"`
	Reasoning     string   `yaml:"reasoning"`
}

func (r ClassifyRule) matches(event core.Event) bool {
	if r.MatchType != event.Type() {
		return false
	}
	if len(r.MatchSeverity) == 0 {
		return true
	}
	for _, sev := range r.MatchSeverity {
		if sev == event.Severity() {
			return true
		}
	}
	return false
}

// ChainRule proposes a follow-up task for a finished source task. When
// require_result_key is set, the rule only fires if the task result holds a
// truthy value under that key.
type ChainRule struct {
	SourceTaskType   string `yaml:"source_task_type"`
	OnStatus         string `yaml:"on_status"` // completed, failed, or empty for any
	RequireResultKey string `yaml:"require_result_key"`
	ChainTaskType    string `yaml:"chain_task_type"`
	Reasoning        string `yaml:"reasoning"`
}

func (r ChainRule) matches(task *core.DelegatedTask) bool {
	if r.SourceTaskType != string(task.TaskType) {
		return false
	}
	if r.OnStatus != "" && r.OnStatus != string(task.Status) {
		return false
	}
	if r.RequireResultKey != "" && !truthy(task.Result[r.RequireResultKey]) {
		return false
	}
	return true
}

// EscalationPolicy controls rule-based escalation decisions.
type EscalationPolicy struct {
	// EscalateOnFailure escalates every failed task.
	EscalateOnFailure bool `yaml:"escalate_on_failure"`
	// ConfidenceFloor escalates completed work whose classification
	// confidence fell below this value.
	ConfidenceFloor float64 `yaml:"confidence_floor"`
}

// RuleSet is the full decision table the toolkit consults. Loaded once at
// startup and swapped atomically on reload.
type RuleSet struct {
	Classify []ClassifyRule   `yaml:"classify"`
	Chain    []ChainRule      `yaml:"chain"`
	Escalate EscalationPolicy `yaml:"escalate"`
}

// DefaultRules returns the built-in decision table.
func DefaultRules() *RuleSet {
	return &RuleSet{
		Classify: []ClassifyRule{
			{MatchType: "disk_full", TaskType: "remediation", Priority: "high", Confidence: 0.95,
				Reasoning: "disk pressure has a known remediation playbook"},
			{MatchType: "service_down", TaskType: "remediation", Priority: "critical", Confidence: 0.9,
				Reasoning: "outages get the restart playbook first"},
			{MatchType: "intrusion_detected", TaskType: "security_scan", Priority: "critical", Confidence: 0.92,
				Reasoning: "intrusion signals require an immediate sweep"},
			{MatchType: "suspicious_login", TaskType: "security_scan", Priority: "high", Confidence: 0.85,
				Reasoning: "credential anomalies require a sweep"},
			{MatchType: "cert_expiring", TaskType: "remediation", Priority: "medium", Confidence: 0.9,
				Reasoning: "certificate renewal is fully automated"},
			{MatchType: "config_drift", TaskType: "remediation", Priority: "medium", Confidence: 0.8,
				Reasoning: "baseline reapply handles drift"},
			{MatchType: "high_latency", TaskType: "investigation", Priority: "medium", Confidence: 0.7,
				Reasoning: "latency causes vary, investigate first"},
		},
		Chain: []ChainRule{
			{SourceTaskType: "security_scan", OnStatus: "completed", RequireResultKey: "findings",
				ChainTaskType: "investigation", Reasoning: "scan findings need a root-cause investigation"},
			{SourceTaskType: "investigation", OnStatus: "completed", RequireResultKey: "suspected_cause",
				ChainTaskType: "monitoring", Reasoning: "watch the resource while the cause is addressed"},
		},
		Escalate: EscalationPolicy{
			EscalateOnFailure: true,
			ConfidenceFloor:   0.5,
		},
	}
}

// LoadRules reads a rule set from a YAML file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.ErrConfig(core.CodeInvalidConfig, "reading rules file").WithCause(err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, core.ErrConfig(core.CodeInvalidConfig, "parsing rules file").WithCause(err)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// Validate checks rule invariants: classification targets must be supported
// task types, chain targets must be supported or "none".
func (rs *RuleSet) Validate() error {
	for _, r := range rs.Classify {
		if r.MatchType == "" {
			return core.ErrConfig(core.CodeInvalidConfig, "classify rule without match_type")
		}
		if _, err := core.ParseTaskType(r.TaskType); err != nil {
			return core.ErrConfig(core.CodeInvalidConfig,
				"classify rule for "+r.MatchType+" targets unsupported task type "+r.TaskType)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return core.ErrConfig(core.CodeInvalidConfig,
				"classify rule for "+r.MatchType+" has confidence outside [0, 1]")
		}
	}
	for _, r := range rs.Chain {
		if r.ChainTaskType == core.TaskTypeNone {
			continue
		}
		if _, err := core.ParseTaskType(r.ChainTaskType); err != nil {
			return core.ErrConfig(core.CodeInvalidConfig,
				"chain rule for "+r.SourceTaskType+" targets unsupported task type "+r.ChainTaskType)
		}
	}
	if rs.Escalate.ConfidenceFloor < 0 || rs.Escalate.ConfidenceFloor > 1 {
		return core.ErrConfig(core.CodeInvalidConfig, "confidence_floor outside [0, 1]")
	}
	return nil
}

// truthy reports whether a result value counts as present for chain rules:
// true booleans, non-zero numbers, non-empty strings and collections.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}
