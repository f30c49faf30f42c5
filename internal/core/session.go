package core

import (
	"time"

	"github.com/google/uuid"
)

// Stage names a step of the supervisor workflow. The two terminal tags
// ("failed", "complete") share the namespace with the business stages.
type Stage string

const (
	StageClassify Stage = "classify"
	StageDispatch Stage = "dispatch"
	StageEvaluate Stage = "evaluate"
	StageChain    Stage = "chain"
	StageEscalate Stage = "escalate"
	StageFinalize Stage = "finalize"
	StageFailed   Stage = "failed"
	StageComplete Stage = "complete"
)

// Channel is an escalation delivery channel.
type Channel string

const (
	ChannelSlack     Channel = "slack"
	ChannelPagerDuty Channel = "pagerduty"
)

// Urgency qualifies how fast a human must react to an escalation.
type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
)

// SupervisorStep is one entry of the append-only audit trail. Every stage
// execution, including failed ones, appends exactly one step.
type SupervisorStep struct {
	StepNumber    int    `json:"step_number"`
	Action        Stage  `json:"action"`
	InputSummary  string `json:"input_summary"`
	OutputSummary string `json:"output_summary"`
	DurationMS    int64  `json:"duration_ms"`
	ToolUsed      string `json:"tool_used,omitempty"`
}

// ChainedWorkflow links a source task to the follow-up task it triggered.
type ChainedWorkflow struct {
	SourceTaskID    string   `json:"source_task_id"`
	SourceTaskType  TaskType `json:"source_task_type"`
	ChainedTaskID   string   `json:"chained_task_id"`
	ChainedTaskType TaskType `json:"chained_task_type"`
	TriggerReason   string   `json:"trigger_reason"`
}

// EscalationRecord documents one human notification.
type EscalationRecord struct {
	EscalationID string    `json:"escalation_id"`
	Reason       string    `json:"reason"`
	TaskID       string    `json:"task_id,omitempty"`
	TaskType     TaskType  `json:"task_type,omitempty"`
	Channel      Channel   `json:"channel"`
	NotifiedAt   time.Time `json:"notified_at"`
}

// SessionState is the mutable record threaded through every stage of one
// workflow run. It is exclusively owned by a single logical session; no
// stage is ever invoked concurrently against the same instance, so no
// locking is needed.
type SessionState struct {
	SessionID      string               `json:"session_id"`
	Event          Event                `json:"event"`
	Classification *EventClassification `json:"classification,omitempty"`
	ActiveTask     *DelegatedTask       `json:"active_task,omitempty"`
	DelegatedTasks []DelegatedTask      `json:"delegated_tasks"`
	Chained        []ChainedWorkflow    `json:"chained_workflows"`
	Escalations    []EscalationRecord   `json:"escalations"`
	ReasoningChain []SupervisorStep     `json:"reasoning_chain"`

	// Transient routing flags produced by Evaluate, consumed by the
	// orchestrator for this run only.
	ShouldChain     bool     `json:"should_chain"`
	ChainTaskType   TaskType `json:"chain_task_type,omitempty"`
	ChainReason     string   `json:"chain_reason,omitempty"`
	NeedsEscalation bool     `json:"needs_escalation"`
	Channel         Channel  `json:"escalation_channel,omitempty"`

	CurrentStep Stage  `json:"current_step"`
	Error       string `json:"error,omitempty"`

	SessionStart time.Time `json:"session_start"`
	DurationMS   int64     `json:"session_duration_ms"`
}

// NewSessionState creates the state for one incoming event.
func NewSessionState(event Event) *SessionState {
	return &SessionState{
		SessionID:      "sess-" + uuid.NewString(),
		Event:          event,
		DelegatedTasks: make([]DelegatedTask, 0, 2),
		Chained:        make([]ChainedWorkflow, 0),
		Escalations:    make([]EscalationRecord, 0),
		ReasoningChain: make([]SupervisorStep, 0, 6),
	}
}

// AppendStep appends an audit entry with the next strictly increasing step
// number. The reasoning chain is append-only: entries are never edited or
// removed.
func (s *SessionState) AppendStep(action Stage, input, output string, duration time.Duration, tool string) {
	s.ReasoningChain = append(s.ReasoningChain, SupervisorStep{
		StepNumber:    len(s.ReasoningChain) + 1,
		Action:        action,
		InputSummary:  input,
		OutputSummary: output,
		DurationMS:    duration.Milliseconds(),
		ToolUsed:      tool,
	})
}

// RecordTask appends a dispatched task and makes it the active task.
func (s *SessionState) RecordTask(task *DelegatedTask) {
	s.DelegatedTasks = append(s.DelegatedTasks, *task)
	s.ActiveTask = task
}

// RecordChainedTask appends a follow-up task without touching the active
// task: chaining is fire-and-forget relative to the current evaluation.
func (s *SessionState) RecordChainedTask(task *DelegatedTask, link ChainedWorkflow) {
	s.DelegatedTasks = append(s.DelegatedTasks, *task)
	s.Chained = append(s.Chained, link)
}

// RecordEscalation appends an escalation record.
func (s *SessionState) RecordEscalation(rec EscalationRecord) {
	s.Escalations = append(s.Escalations, rec)
}

// Fail marks the session failed with a message. Business stages must not run
// after this; Finalize still may.
func (s *SessionState) Fail(msg string) {
	s.CurrentStep = StageFailed
	s.Error = msg
}

// IsFailed reports whether the session hit a precondition failure.
func (s *SessionState) IsFailed() bool { return s.CurrentStep == StageFailed }

// Summary is a lightweight projection of a session for listings.
type Summary struct {
	SessionID   string    `json:"session_id"`
	EventType   string    `json:"event_type"`
	CurrentStep Stage     `json:"current_step"`
	Tasks       int       `json:"tasks"`
	Chains      int       `json:"chains"`
	Escalations int       `json:"escalations"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// Summarize builds the listing projection of this session.
func (s *SessionState) Summarize() Summary {
	return Summary{
		SessionID:   s.SessionID,
		EventType:   s.Event.Type(),
		CurrentStep: s.CurrentStep,
		Tasks:       len(s.DelegatedTasks),
		Chains:      len(s.Chained),
		Escalations: len(s.Escalations),
		StartedAt:   s.SessionStart,
		DurationMS:  s.DurationMS,
	}
}
