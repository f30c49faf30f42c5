package supervisor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/events"
)

// escalationPlan picks the reason, channel, and urgency by priority of
// evidence: a failed task outranks low classification confidence, which
// outranks the generic review request. PagerDuty is reserved for failed
// critical work; everything else goes to chat.
func escalationPlan(task *core.DelegatedTask, cls *core.EventClassification) (string, core.Channel, core.Urgency) {
	switch {
	case task != nil && task.IsFailed():
		reason := fmt.Sprintf("Task failed: agent %s reported: %s", task.AgentName, task.Error)
		if cls != nil && cls.Priority == core.PriorityCritical {
			return reason, core.ChannelPagerDuty, core.UrgencyImmediate
		}
		return reason, core.ChannelSlack, core.UrgencySoon
	case cls != nil && cls.Confidence < lowConfidenceThreshold:
		reason := fmt.Sprintf("Low confidence classification (%.2f) requires human review", cls.Confidence)
		return reason, core.ChannelSlack, core.UrgencySoon
	default:
		return "Session requires human review", core.ChannelSlack, core.UrgencySoon
	}
}

// escalate notifies a human and records the escalation. It always produces an
// EscalationRecord, even with degraded information or a delivery failure: the
// audit trail must show the escalation was decided regardless of whether the
// notification landed.
func (o *Orchestrator) escalate(ctx context.Context, tk core.Toolkit, s *core.SessionState) error {
	start := o.clock.Now()
	s.CurrentStep = core.StageEscalate

	task := s.ActiveTask
	reason, channel, urgency := escalationPlan(task, s.Classification)
	s.Channel = channel

	input := "escalation requested"
	if task != nil {
		input = fmt.Sprintf("escalation for task %s (%s)", task.TaskID, task.Status)
	}

	rec := core.EscalationRecord{
		EscalationID: "esc-" + uuid.NewString(),
		Reason:       reason,
		Channel:      channel,
		NotifiedAt:   o.clock.Now(),
	}
	if task != nil {
		rec.TaskID = task.TaskID
		rec.TaskType = task.TaskType
	}

	message := fmt.Sprintf("%s | session %s | event %s", reason, s.SessionID, s.Event.Type())
	if err := tk.SendEscalation(ctx, channel, message, urgency); err != nil {
		o.logger.WithSession(s.SessionID).Error("escalation delivery failed",
			"channel", channel, "error", err)
	}
	s.RecordEscalation(rec)

	if o.metrics != nil {
		o.metrics.EscalationsSent.WithLabelValues(string(channel)).Inc()
	}
	o.publish(events.NewEscalationSent(s.SessionID, rec))

	s.AppendStep(core.StageEscalate, input,
		fmt.Sprintf("notified %s (%s): %s", channel, urgency, reason),
		o.clock.Now().Sub(start), "notify")
	return nil
}
