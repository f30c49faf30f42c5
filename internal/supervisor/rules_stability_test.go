package supervisor

import (
	"context"
	"testing"

	"github.com/shieldops/shieldops/internal/agents"
	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/toolkit"
)

// rulesSwappingAgent swaps the live rule tables while its task runs, the way
// a hot reload would land mid-session.
type rulesSwappingAgent struct {
	tk   *toolkit.Toolkit
	next *toolkit.RuleSet
}

func (a *rulesSwappingAgent) Name() string            { return "swap-agent" }
func (a *rulesSwappingAgent) TaskType() core.TaskType { return core.TaskTypeInvestigation }

func (a *rulesSwappingAgent) Run(_ context.Context, _ map[string]any) (map[string]any, error) {
	a.tk.SwapRules(a.next)
	return map[string]any{"suspected_cause": "disk pressure"}, nil
}

func TestRulesSwapDuringSessionKeepsStartingTables(t *testing.T) {
	tableA := &toolkit.RuleSet{
		Classify: []toolkit.ClassifyRule{{MatchType: "disk_full", TaskType: "investigation",
			Priority: "high", Confidence: 0.95, Reasoning: "investigate disk pressure"}},
		Chain: []toolkit.ChainRule{{SourceTaskType: "investigation", OnStatus: "completed",
			RequireResultKey: "suspected_cause", ChainTaskType: "monitoring",
			Reasoning: "watch the resource"}},
		Escalate: toolkit.EscalationPolicy{EscalateOnFailure: true, ConfidenceFloor: 0.5},
	}
	// Same classification, no chain rules.
	tableB := &toolkit.RuleSet{
		Classify: tableA.Classify,
		Escalate: tableA.Escalate,
	}

	registry := agents.NewRegistry()
	tk := toolkit.New(registry, tableA)
	if err := registry.Register(&rulesSwappingAgent{tk: tk, next: tableB}); err != nil {
		t.Fatalf("registering swap agent: %v", err)
	}
	if err := registry.Register(agents.NewMonitoringRunner(nil)); err != nil {
		t.Fatalf("registering monitoring runner: %v", err)
	}

	o := New(tk)
	s, err := o.Run(context.Background(), core.Event{"type": "disk_full", "severity": "high"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s.Chained) != 1 {
		t.Fatalf("chained %d workflows, want 1: a session must keep the tables it started with", len(s.Chained))
	}

	// The swapped tables apply from the next session on.
	s2, err := o.Run(context.Background(), core.Event{"type": "disk_full", "severity": "high"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(s2.Chained) != 0 {
		t.Fatalf("chained %d workflows under the reloaded tables, want 0", len(s2.Chained))
	}
}
