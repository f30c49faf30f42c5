package core

import (
	"context"
	"time"
)

// =============================================================================
// Toolkit Port
// =============================================================================

// RuleClassification is the rule-based classification suggestion. Task type
// and priority are raw strings here on purpose: parsing them into the closed
// enums happens in the Classify stage, where an unrecognized value is a data
// error rather than a toolkit crash.
type RuleClassification struct {
	EventType  string  `json:"event_type"`
	TaskType   string  `json:"task_type"`
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ChainSuggestion is the rule-based chain decision for a finished task.
type ChainSuggestion struct {
	ShouldChain   bool   `json:"should_chain"`
	ChainTaskType string `json:"chain_task_type"`
	Reasoning     string `json:"reasoning"`
}

// EscalationSuggestion is the rule-based escalation decision.
type EscalationSuggestion struct {
	NeedsEscalation bool    `json:"needs_escalation"`
	Channel         Channel `json:"channel"`
	Reasoning       string  `json:"reasoning"`
}

// Toolkit provides the stateless operations the supervisor workflow calls:
// rule-based decisions, task dispatch, and escalation delivery. It must be
// safe for concurrent invocation from multiple sessions and holds no
// per-session state.
type Toolkit interface {
	// Snapshot returns a view whose decision tables are pinned at call
	// time. The orchestrator takes one snapshot per session, so a rules
	// reload mid-session never mixes two tables within one session.
	Snapshot() Toolkit

	// ClassifyEventRules computes a rule-based classification suggestion
	// from static event signals. It always returns some suggestion.
	ClassifyEventRules(ctx context.Context, event Event) RuleClassification

	// DispatchTask hands work to the specialist agent for taskType. It must
	// resolve to a definite completed/failed task and never hang; any
	// retry/timeout policy is internal. A failed dispatch surfaces as a task
	// with status failed, which is valid data, not an error.
	DispatchTask(ctx context.Context, taskType TaskType, input map[string]any) (*DelegatedTask, error)

	// EvaluateChainRules suggests whether task warrants a follow-up task.
	EvaluateChainRules(ctx context.Context, task *DelegatedTask) ChainSuggestion

	// EvaluateEscalationRules decides whether a human must be notified,
	// given the task and the classification (which may be nil).
	EvaluateEscalationRules(ctx context.Context, task *DelegatedTask, cls *EventClassification) EscalationSuggestion

	// SendEscalation delivers a message to a human channel. Delivery
	// guarantees are the toolkit's concern.
	SendEscalation(ctx context.Context, channel Channel, message string, urgency Urgency) error
}

// =============================================================================
// Structured-Decision Client Port
// =============================================================================

// DecisionClient sends a prompt to a language model and decodes the reply
// into a schema struct. It fails with an error on any inability to produce a
// schema-conformant result: timeout, malformed output, provider error. The
// supervisor treats every error identically and falls back to the rule-based
// result.
type DecisionClient interface {
	Structured(ctx context.Context, systemPrompt, userPrompt string, out any) error
}

// =============================================================================
// SessionStore Port
// =============================================================================

// SessionStore persists finished sessions for audit. Implementations must be
// safe for concurrent use.
type SessionStore interface {
	// Save persists a session atomically, overwriting any previous record
	// with the same session ID.
	Save(ctx context.Context, state *SessionState) error

	// Load retrieves a session by ID. Returns a not_found DomainError if it
	// does not exist.
	Load(ctx context.Context, sessionID string) (*SessionState, error)

	// List returns summaries of all stored sessions, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a session by ID.
	Delete(ctx context.Context, sessionID string) error

	// Close releases store resources.
	Close() error
}

// =============================================================================
// SpecialistAgent Port
// =============================================================================

// SpecialistAgent executes one category of delegated work. Implementations
// run outside the supervisor's control; the toolkit wraps their outcome into
// a terminal DelegatedTask.
type SpecialistAgent interface {
	// Name returns the agent identifier (e.g. "investigation-runner").
	Name() string

	// TaskType returns the category this agent serves.
	TaskType() TaskType

	// Run executes the task and returns its result mapping.
	Run(ctx context.Context, input map[string]any) (map[string]any, error)
}

// AgentRegistry resolves task types to registered specialist agents.
type AgentRegistry interface {
	// Register adds an agent. Registering a second agent for the same task
	// type replaces the first.
	Register(agent SpecialistAgent) error

	// ForTaskType retrieves the agent serving a task type.
	ForTaskType(tt TaskType) (SpecialistAgent, error)

	// List returns registered agent names in a stable order.
	List() []string
}

// Clock abstracts time for deterministic stage-duration tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }
