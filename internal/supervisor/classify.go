package supervisor

import (
	"context"
	"fmt"

	"github.com/shieldops/shieldops/internal/core"
)

// classify maps the raw event to an EventClassification. The rule-based
// suggestion always exists; when its confidence is below the refinement
// threshold and a decision client is configured, the client's answer replaces
// it entirely. A client failure keeps the rule result.
func (o *Orchestrator) classify(ctx context.Context, tk core.Toolkit, s *core.SessionState) error {
	start := o.clock.Now()
	s.SessionStart = start
	s.CurrentStep = core.StageClassify

	input := fmt.Sprintf("event %q severity %q from %q",
		s.Event.Type(), s.Event.Severity(), s.Event.Source())

	rule := tk.ClassifyEventRules(ctx, s.Event)

	decision := Baseline(rule)
	if rule.Confidence < llmRefineThreshold && o.llm != nil {
		decision = Attempt(rule, func() (core.RuleClassification, error) {
			var out classificationDecision
			if err := o.llm.Structured(ctx, classificationSystemPrompt,
				classificationUserPrompt(s.Event, rule), &out); err != nil {
				return core.RuleClassification{}, err
			}
			return out.toRuleClassification(), nil
		})
		if decision.Err != nil {
			o.logger.WithSession(s.SessionID).Warn("classification refinement failed, keeping rule result",
				"error", decision.Err)
			if o.metrics != nil {
				o.metrics.LLMFallbacks.Inc()
			}
		}
	}

	chosen := decision.Value
	taskType, err := core.ParseTaskType(chosen.TaskType)
	if err != nil {
		s.AppendStep(core.StageClassify, input,
			"unrecognized task type: "+chosen.TaskType,
			o.clock.Now().Sub(start), decision.Tool())
		return err
	}

	eventType := chosen.EventType
	if eventType == "" {
		eventType = s.Event.Type()
	}
	cls := &core.EventClassification{
		EventType:  eventType,
		TaskType:   taskType,
		Priority:   core.ParsePriority(chosen.Priority),
		Confidence: chosen.Confidence,
		Reasoning:  chosen.Reasoning,
	}
	if err := cls.Validate(); err != nil {
		s.AppendStep(core.StageClassify, input,
			"invalid classification: "+err.Error(),
			o.clock.Now().Sub(start), decision.Tool())
		return err
	}
	s.Classification = cls

	s.AppendStep(core.StageClassify, input,
		fmt.Sprintf("classified as %s/%s (confidence %.2f)",
			cls.TaskType, cls.Priority, cls.Confidence),
		o.clock.Now().Sub(start), decision.Tool())
	return nil
}
