package agents

import (
	"context"
	"testing"

	"github.com/shieldops/shieldops/internal/core"
)

func TestDefaultRegistryCoversAllTaskTypes(t *testing.T) {
	r := DefaultRegistry(nil)
	for _, tt := range core.TaskTypes() {
		agent, err := r.ForTaskType(tt)
		if err != nil {
			t.Fatalf("ForTaskType(%s): %v", tt, err)
		}
		if agent.TaskType() != tt {
			t.Fatalf("agent for %s serves %s", tt, agent.TaskType())
		}
	}
	if len(r.List()) != len(core.TaskTypes()) {
		t.Fatalf("List = %v", r.List())
	}
}

func TestForTaskTypeUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.ForTaskType(core.TaskTypeMonitoring)
	if err == nil {
		t.Fatal("empty registry resolved an agent")
	}
	if !core.IsCategory(err, core.ErrCatDispatch) {
		t.Fatalf("error category = %s, want dispatch", core.GetCategory(err))
	}
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry()
	first := NewMonitoringRunner(nil)
	if err := r.Register(first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(NewMonitoringRunner(nil)); err != nil {
		t.Fatalf("Register replacement: %v", err)
	}
	if len(r.List()) != 1 {
		t.Fatalf("List = %v, want one entry", r.List())
	}
}

func TestRegisterNil(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); err == nil {
		t.Fatal("nil agent accepted")
	}
}

func TestRemediationRunnerPlaybooks(t *testing.T) {
	a := NewRemediationRunner(nil)
	result, err := a.Run(context.Background(), map[string]any{"type": "disk_full", "resource_id": "db-7"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["playbook"] != "prune_logs_and_rotate" {
		t.Fatalf("playbook = %v", result["playbook"])
	}

	if _, err := a.Run(context.Background(), map[string]any{"type": "solar_flare"}); err == nil {
		t.Fatal("unknown event type produced a playbook")
	}
}

func TestInvestigationRunnerFindings(t *testing.T) {
	a := NewInvestigationRunner(nil)
	result, err := a.Run(context.Background(), map[string]any{"type": "intrusion_detected", "resource_id": "api-3"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result["suspected_cause"] != "possible credential compromise" {
		t.Fatalf("suspected_cause = %v", result["suspected_cause"])
	}
}

func TestRunnersHonorCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, tt := range core.TaskTypes() {
		agent, _ := DefaultRegistry(nil).ForTaskType(tt)
		if _, err := agent.Run(ctx, map[string]any{"type": "disk_full"}); err == nil {
			t.Fatalf("%s ignored cancelled context", agent.Name())
		}
	}
}
