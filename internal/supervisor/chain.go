package supervisor

import (
	"context"
	"fmt"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/events"
)

// chain dispatches exactly one follow-up task derived from the active task.
// The active task is left in place: the follow-up is fire-and-forget relative
// to this session's evaluation, it is never re-evaluated here.
func (o *Orchestrator) chain(ctx context.Context, tk core.Toolkit, s *core.SessionState) error {
	start := o.clock.Now()
	s.CurrentStep = core.StageChain

	if s.ChainTaskType == "" || s.ActiveTask == nil {
		s.AppendStep(core.StageChain, "chain requested",
			"skipped: chain target or active task missing",
			o.clock.Now().Sub(start), "")
		return nil
	}

	source := s.ActiveTask
	input := fmt.Sprintf("follow-up %s after task %s", s.ChainTaskType, source.TaskID)

	data := s.Event.Clone()
	if data == nil {
		data = core.Event{}
	}
	data["source_task_id"] = source.TaskID
	data["source_task_type"] = string(source.TaskType)
	if len(source.Result) > 0 {
		data["source_result"] = source.Result
	}

	task, err := tk.DispatchTask(ctx, s.ChainTaskType, data)
	if err != nil {
		// The session already did its primary work; a chain dispatch problem
		// degrades to an audited skip instead of failing the session.
		o.logger.WithSession(s.SessionID).Warn("chain dispatch failed", "error", err)
		s.AppendStep(core.StageChain, input,
			"chain dispatch error: "+err.Error(),
			o.clock.Now().Sub(start), "dispatch")
		return nil
	}

	reason := s.ChainReason
	if reason == "" {
		reason = fmt.Sprintf("follow-up after %s task %s", source.TaskType, source.TaskID)
	}
	link := core.ChainedWorkflow{
		SourceTaskID:    source.TaskID,
		SourceTaskType:  source.TaskType,
		ChainedTaskID:   task.TaskID,
		ChainedTaskType: task.TaskType,
		TriggerReason:   reason,
	}
	s.RecordChainedTask(task, link)

	if o.metrics != nil {
		o.metrics.TasksDispatched.WithLabelValues(string(task.TaskType), string(task.Status)).Inc()
	}
	o.publish(events.NewTaskDispatched(s.SessionID, task))
	o.publish(events.NewWorkflowChained(s.SessionID, link))

	s.AppendStep(core.StageChain, input,
		fmt.Sprintf("chained task %s to %s: %s", task.TaskID, task.AgentName, task.Status),
		o.clock.Now().Sub(start), "dispatch")
	return nil
}
