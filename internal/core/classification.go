package core

import "strings"

// TaskType identifies a specialist agent category.
type TaskType string

const (
	TaskTypeInvestigation TaskType = "investigation"
	TaskTypeRemediation   TaskType = "remediation"
	TaskTypeSecurityScan  TaskType = "security_scan"
	TaskTypeMonitoring    TaskType = "monitoring"
)

// TaskTypeNone is the sentinel chain target meaning "no follow-up task".
// It is not a valid dispatch target.
const TaskTypeNone = "none"

// supportedTaskTypes is the closed set of dispatchable task types.
var supportedTaskTypes = map[TaskType]bool{
	TaskTypeInvestigation: true,
	TaskTypeRemediation:   true,
	TaskTypeSecurityScan:  true,
	TaskTypeMonitoring:    true,
}

// ParseTaskType validates a raw task-type string against the supported set.
// Unrecognized values are a data error, never silently coerced.
func ParseTaskType(s string) (TaskType, error) {
	tt := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if !supportedTaskTypes[tt] {
		return "", ErrClassification("UNSUPPORTED_TASK_TYPE",
			"unsupported task type: "+s)
	}
	return tt, nil
}

// TaskTypes returns all supported task types in a stable order.
func TaskTypes() []TaskType {
	return []TaskType{
		TaskTypeInvestigation,
		TaskTypeRemediation,
		TaskTypeSecurityScan,
		TaskTypeMonitoring,
	}
}

// Priority represents the urgency assigned to an event.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ParsePriority normalizes a raw priority string, defaulting to medium for
// unknown values. Unlike task types, priority is advisory and never blocks a
// session.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityMedium:
		return PriorityMedium
	case PriorityHigh:
		return PriorityHigh
	case PriorityCritical:
		return PriorityCritical
	default:
		return PriorityMedium
	}
}

// EventClassification is the supervisor's determination of what an event is
// and which specialist should handle it. Immutable once created.
type EventClassification struct {
	EventType  string   `json:"event_type"`
	TaskType   TaskType `json:"task_type"`
	Priority   Priority `json:"priority"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// Validate checks classification invariants.
func (c *EventClassification) Validate() error {
	if !supportedTaskTypes[c.TaskType] {
		return ErrClassification("UNSUPPORTED_TASK_TYPE",
			"unsupported task type: "+string(c.TaskType))
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return ErrValidation("CONFIDENCE_RANGE",
			"confidence must be in [0, 1]")
	}
	return nil
}
