package supervisor

import (
	"errors"
	"testing"
)

func TestBaselineDecision(t *testing.T) {
	d := Baseline(42)
	if d.Value != 42 || d.IsEnhanced() || d.Err != nil {
		t.Fatalf("Baseline = %+v", d)
	}
	if d.Tool() != "rules" {
		t.Fatalf("Tool = %q, want rules", d.Tool())
	}
}

func TestAttemptSuccessIsEnhanced(t *testing.T) {
	d := Attempt(1, func() (int, error) { return 2, nil })
	if d.Value != 2 || !d.IsEnhanced() || d.Err != nil {
		t.Fatalf("Attempt = %+v", d)
	}
	if d.Tool() != "llm" {
		t.Fatalf("Tool = %q, want llm", d.Tool())
	}
}

func TestAttemptFailureKeepsBaseline(t *testing.T) {
	boom := errors.New("boom")
	d := Attempt(1, func() (int, error) { return 0, boom })
	if d.Value != 1 || d.IsEnhanced() {
		t.Fatalf("Attempt = %+v, want baseline kept", d)
	}
	if !errors.Is(d.Err, boom) {
		t.Fatalf("Err = %v, want recorded refine error", d.Err)
	}
}
