package supervisor

import (
	"context"
	"fmt"

	"github.com/shieldops/shieldops/internal/core"
)

// evaluate makes two independent decisions about the active task: whether to
// chain a follow-up task and whether to escalate to a human. The chain
// decision may be refined by the decision client when the task completed with
// a result; the escalation decision is always rule-based.
func (o *Orchestrator) evaluate(ctx context.Context, tk core.Toolkit, s *core.SessionState) error {
	start := o.clock.Now()
	s.CurrentStep = core.StageEvaluate

	if s.ActiveTask == nil {
		s.AppendStep(core.StageEvaluate, "no active task",
			"precondition failed: active task missing",
			o.clock.Now().Sub(start), "")
		return core.ErrState(core.CodeMissingActiveTask,
			"cannot evaluate without an active task")
	}

	task := s.ActiveTask
	input := fmt.Sprintf("task %s status %s", task.TaskID, task.Status)

	rule := tk.EvaluateChainRules(ctx, task)
	chainDec := Baseline(rule)
	if task.HasResult() && o.llm != nil {
		chainDec = Attempt(rule, func() (core.ChainSuggestion, error) {
			var out chainDecision
			if err := o.llm.Structured(ctx, chainSystemPrompt,
				chainUserPrompt(task, rule), &out); err != nil {
				return core.ChainSuggestion{}, err
			}
			return out.toSuggestion(), nil
		})
		if chainDec.Err != nil {
			o.logger.WithSession(s.SessionID).Warn("chain refinement failed, keeping rule result",
				"error", chainDec.Err)
			if o.metrics != nil {
				o.metrics.LLMFallbacks.Inc()
			}
		}
	}

	s.ShouldChain = chainDec.Value.ShouldChain
	s.ChainReason = chainDec.Value.Reasoning
	chainTarget := "none"
	if s.ShouldChain {
		// An invalid or absent chain target can never produce a positive
		// chain decision, regardless of which path proposed it.
		tt, err := core.ParseTaskType(chainDec.Value.ChainTaskType)
		if err != nil {
			o.logger.WithSession(s.SessionID).Warn("discarding chain decision",
				"chain_task_type", chainDec.Value.ChainTaskType, "error", err)
			s.ShouldChain = false
			s.ChainTaskType = ""
		} else {
			s.ChainTaskType = tt
			chainTarget = string(tt)
		}
	}

	esc := tk.EvaluateEscalationRules(ctx, task, s.Classification)
	s.NeedsEscalation = esc.NeedsEscalation
	s.Channel = esc.Channel

	escTarget := "none"
	if s.NeedsEscalation {
		escTarget = string(esc.Channel)
	}
	s.AppendStep(core.StageEvaluate, input,
		fmt.Sprintf("task %s; chain: %s; escalation: %s", task.Status, chainTarget, escTarget),
		o.clock.Now().Sub(start), chainDec.Tool())
	return nil
}
