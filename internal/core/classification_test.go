package core

import (
	"errors"
	"testing"
)

func TestParseTaskType(t *testing.T) {
	cases := []struct {
		in      string
		want    TaskType
		wantErr bool
	}{
		{"remediation", TaskTypeRemediation, false},
		{"  Security_Scan ", TaskTypeSecurityScan, false},
		{"INVESTIGATION", TaskTypeInvestigation, false},
		{"monitoring", TaskTypeMonitoring, false},
		{"none", "", true},
		{"", "", true},
		{"time_travel", "", true},
	}
	for _, tc := range cases {
		got, err := ParseTaskType(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseTaskType(%q) succeeded, want error", tc.in)
			}
			var domErr *DomainError
			if !errors.As(err, &domErr) || domErr.Category != ErrCatClassification {
				t.Fatalf("ParseTaskType(%q) error = %v, want classification error", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTaskType(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTaskType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParsePriorityDefaultsMedium(t *testing.T) {
	if got := ParsePriority("CRITICAL"); got != PriorityCritical {
		t.Fatalf("ParsePriority(CRITICAL) = %s", got)
	}
	if got := ParsePriority("whatever"); got != PriorityMedium {
		t.Fatalf("ParsePriority(whatever) = %s, want medium", got)
	}
	if got := ParsePriority(""); got != PriorityMedium {
		t.Fatalf("ParsePriority(empty) = %s, want medium", got)
	}
}

func TestClassificationValidate(t *testing.T) {
	good := EventClassification{TaskType: TaskTypeMonitoring, Confidence: 0.5}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := EventClassification{TaskType: "time_travel", Confidence: 0.5}
	if err := bad.Validate(); err == nil {
		t.Fatal("unsupported task type passed validation")
	}

	outOfRange := EventClassification{TaskType: TaskTypeMonitoring, Confidence: 1.5}
	if err := outOfRange.Validate(); err == nil {
		t.Fatal("confidence 1.5 passed validation")
	}
}
