package supervisor

import (
	"context"
	"fmt"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/events"
)

// dispatch hands the classified event to the specialist agent for its task
// type. The toolkit resolves every dispatch to a terminal completed/failed
// task; a failed task is valid data for Evaluate, not an error here.
func (o *Orchestrator) dispatch(ctx context.Context, tk core.Toolkit, s *core.SessionState) error {
	start := o.clock.Now()
	s.CurrentStep = core.StageDispatch

	if s.Classification == nil {
		s.AppendStep(core.StageDispatch, "no classification",
			"precondition failed: classification missing",
			o.clock.Now().Sub(start), "")
		return core.ErrState(core.CodeMissingClass,
			"cannot dispatch without a classification")
	}

	cls := s.Classification
	input := fmt.Sprintf("task type %s priority %s", cls.TaskType, cls.Priority)

	task, err := tk.DispatchTask(ctx, cls.TaskType, s.Event.Clone())
	if err != nil {
		s.AppendStep(core.StageDispatch, input,
			"dispatch error: "+err.Error(),
			o.clock.Now().Sub(start), "dispatch")
		return err
	}
	s.RecordTask(task)

	if o.metrics != nil {
		o.metrics.TasksDispatched.WithLabelValues(string(task.TaskType), string(task.Status)).Inc()
	}
	o.publish(events.NewTaskDispatched(s.SessionID, task))

	s.AppendStep(core.StageDispatch, input,
		fmt.Sprintf("task %s handled by %s: %s", task.TaskID, task.AgentName, task.Status),
		o.clock.Now().Sub(start), "dispatch")
	return nil
}
