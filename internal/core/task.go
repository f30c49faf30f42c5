package core

// TaskStatus is the terminal-only status of a delegated task as seen by the
// supervisor. The toolkit resolves every dispatch to one of these; there is
// no agent-side mutation visible after dispatch returns.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// DelegatedTask records one piece of work handed to a specialist agent.
// Created by the toolkit on dispatch, owned by the session afterwards,
// immutable once created.
type DelegatedTask struct {
	TaskID     string         `json:"task_id"`
	AgentName  string         `json:"agent_name"`
	TaskType   TaskType       `json:"task_type"`
	Status     TaskStatus     `json:"status"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// IsCompleted returns true if the task finished successfully.
func (t *DelegatedTask) IsCompleted() bool { return t.Status == TaskStatusCompleted }

// IsFailed returns true if the task failed.
func (t *DelegatedTask) IsFailed() bool { return t.Status == TaskStatusFailed }

// HasResult returns true if the task completed with a non-empty result.
func (t *DelegatedTask) HasResult() bool {
	return t.Status == TaskStatusCompleted && len(t.Result) > 0
}
