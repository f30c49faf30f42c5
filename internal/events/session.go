package events

import "github.com/shieldops/shieldops/internal/core"

// Session lifecycle event types.
const (
	TypeSessionStarted   = "session_started"
	TypeStageCompleted   = "stage_completed"
	TypeTaskDispatched   = "task_dispatched"
	TypeWorkflowChained  = "workflow_chained"
	TypeEscalationSent   = "escalation_sent"
	TypeSessionCompleted = "session_completed"
	TypeSessionFailed    = "session_failed"
)

// SessionStartedEvent marks the start of a supervisor session. EventKind is
// the operational event type (disk_full, service_down, ...), distinct from
// the bus event type.
type SessionStartedEvent struct {
	BaseEvent
	EventKind string `json:"event_type"`
	Severity  string `json:"severity,omitempty"`
}

// NewSessionStarted creates a session started event.
func NewSessionStarted(sessionID string, event core.Event) SessionStartedEvent {
	return SessionStartedEvent{
		BaseEvent: NewBaseEvent(TypeSessionStarted, sessionID),
		EventKind: event.Type(),
		Severity:  event.Severity(),
	}
}

// StageCompletedEvent marks one stage execution, failed ones included.
type StageCompletedEvent struct {
	BaseEvent
	Stage      core.Stage `json:"stage"`
	StepNumber int        `json:"step_number"`
	Summary    string     `json:"summary"`
	DurationMS int64      `json:"duration_ms"`
}

// NewStageCompleted creates a stage completed event from an audit step.
func NewStageCompleted(sessionID string, step core.SupervisorStep) StageCompletedEvent {
	return StageCompletedEvent{
		BaseEvent:  NewBaseEvent(TypeStageCompleted, sessionID),
		Stage:      step.Action,
		StepNumber: step.StepNumber,
		Summary:    step.OutputSummary,
		DurationMS: step.DurationMS,
	}
}

// TaskDispatchedEvent marks a delegated task, chained ones included.
type TaskDispatchedEvent struct {
	BaseEvent
	TaskID    string          `json:"task_id"`
	TaskType  core.TaskType   `json:"task_type"`
	AgentName string          `json:"agent_name"`
	Status    core.TaskStatus `json:"status"`
}

// NewTaskDispatched creates a task dispatched event.
func NewTaskDispatched(sessionID string, task *core.DelegatedTask) TaskDispatchedEvent {
	return TaskDispatchedEvent{
		BaseEvent: NewBaseEvent(TypeTaskDispatched, sessionID),
		TaskID:    task.TaskID,
		TaskType:  task.TaskType,
		AgentName: task.AgentName,
		Status:    task.Status,
	}
}

// WorkflowChainedEvent marks a follow-up task triggered by a finished one.
type WorkflowChainedEvent struct {
	BaseEvent
	SourceTaskID  string        `json:"source_task_id"`
	ChainedTaskID string        `json:"chained_task_id"`
	ChainedType   core.TaskType `json:"chained_task_type"`
	TriggerReason string        `json:"trigger_reason"`
}

// NewWorkflowChained creates a workflow chained event.
func NewWorkflowChained(sessionID string, link core.ChainedWorkflow) WorkflowChainedEvent {
	return WorkflowChainedEvent{
		BaseEvent:     NewBaseEvent(TypeWorkflowChained, sessionID),
		SourceTaskID:  link.SourceTaskID,
		ChainedTaskID: link.ChainedTaskID,
		ChainedType:   link.ChainedTaskType,
		TriggerReason: link.TriggerReason,
	}
}

// EscalationSentEvent marks a human notification.
type EscalationSentEvent struct {
	BaseEvent
	EscalationID string       `json:"escalation_id"`
	Channel      core.Channel `json:"channel"`
	Reason       string       `json:"reason"`
}

// NewEscalationSent creates an escalation sent event.
func NewEscalationSent(sessionID string, rec core.EscalationRecord) EscalationSentEvent {
	return EscalationSentEvent{
		BaseEvent:    NewBaseEvent(TypeEscalationSent, sessionID),
		EscalationID: rec.EscalationID,
		Channel:      rec.Channel,
		Reason:       rec.Reason,
	}
}

// SessionFinishedEvent marks session completion or failure.
type SessionFinishedEvent struct {
	BaseEvent
	CurrentStep core.Stage `json:"current_step"`
	Tasks       int        `json:"tasks"`
	Chains      int        `json:"chains"`
	Escalations int        `json:"escalations"`
	DurationMS  int64      `json:"duration_ms"`
	Error       string     `json:"error,omitempty"`
}

// NewSessionFinished creates a terminal session event. The event type is
// session_failed when the session hit a precondition failure, otherwise
// session_completed.
func NewSessionFinished(state *core.SessionState) SessionFinishedEvent {
	eventType := TypeSessionCompleted
	if state.IsFailed() {
		eventType = TypeSessionFailed
	}
	return SessionFinishedEvent{
		BaseEvent:   NewBaseEvent(eventType, state.SessionID),
		CurrentStep: state.CurrentStep,
		Tasks:       len(state.DelegatedTasks),
		Chains:      len(state.Chained),
		Escalations: len(state.Escalations),
		DurationMS:  state.DurationMS,
		Error:       state.Error,
	}
}
