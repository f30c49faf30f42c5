package toolkit

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/logging"
)

// Notifier delivers an escalation message to one channel.
type Notifier interface {
	Send(ctx context.Context, message string, urgency core.Urgency) error
}

// Toolkit is the rule-driven implementation of the supervisor's capability
// port. It holds no per-session state; the rule set is swapped atomically so
// concurrent sessions always see a coherent table.
type Toolkit struct {
	rules     atomic.Pointer[RuleSet]
	registry  core.AgentRegistry
	notifiers map[core.Channel]Notifier
	logger    *logging.Logger
	clock     core.Clock
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithNotifier installs the delivery backend for one channel.
func WithNotifier(channel core.Channel, n Notifier) Option {
	return func(t *Toolkit) { t.notifiers[channel] = n }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Toolkit) { t.logger = l }
}

// WithClock overrides the wall clock, for tests.
func WithClock(c core.Clock) Option {
	return func(t *Toolkit) { t.clock = c }
}

// New creates a toolkit over an agent registry and a rule set. A nil rules
// argument uses the built-in defaults.
func New(registry core.AgentRegistry, rules *RuleSet, opts ...Option) *Toolkit {
	if rules == nil {
		rules = DefaultRules()
	}
	t := &Toolkit{
		registry:  registry,
		notifiers: make(map[core.Channel]Notifier),
		logger:    logging.NewNop(),
		clock:     core.SystemClock{},
	}
	t.rules.Store(rules)
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Rules returns the currently active rule set.
func (t *Toolkit) Rules() *RuleSet { return t.rules.Load() }

// SwapRules atomically replaces the active rule set. Sessions already
// running keep the snapshot they started with.
func (t *Toolkit) SwapRules(rs *RuleSet) { t.rules.Store(rs) }

// Snapshot returns a view of the toolkit pinned to the decision tables
// active right now. A concurrent SwapRules affects later snapshots only, so
// a single session never consults a mix of two rule sets.
func (t *Toolkit) Snapshot() core.Toolkit {
	return &pinnedToolkit{Toolkit: t, pinned: t.Rules()}
}

// pinnedToolkit serves one session with a fixed rule set. Dispatch and
// escalation delivery pass through to the shared toolkit.
type pinnedToolkit struct {
	*Toolkit
	pinned *RuleSet
}

func (p *pinnedToolkit) Snapshot() core.Toolkit { return p }

func (p *pinnedToolkit) ClassifyEventRules(_ context.Context, event core.Event) core.RuleClassification {
	return p.classifyWith(p.pinned, event)
}

func (p *pinnedToolkit) EvaluateChainRules(_ context.Context, task *core.DelegatedTask) core.ChainSuggestion {
	return p.chainWith(p.pinned, task)
}

func (p *pinnedToolkit) EvaluateEscalationRules(_ context.Context, task *core.DelegatedTask, cls *core.EventClassification) core.EscalationSuggestion {
	return p.escalationWith(p.pinned, task, cls)
}

// ClassifyEventRules matches the event against the classification table. The
// first matching rule wins; with no match it returns a low-confidence
// investigation suggestion so classification always produces something.
func (t *Toolkit) ClassifyEventRules(_ context.Context, event core.Event) core.RuleClassification {
	return t.classifyWith(t.Rules(), event)
}

func (t *Toolkit) classifyWith(rules *RuleSet, event core.Event) core.RuleClassification {
	for _, rule := range rules.Classify {
		if rule.matches(event) {
			priority := rule.Priority
			if priority == "" {
				priority = event.Severity()
			}
			return core.RuleClassification{
				EventType:  event.Type(),
				TaskType:   rule.TaskType,
				Priority:   priority,
				Confidence: rule.Confidence,
				Reasoning:  rule.Reasoning,
			}
		}
	}
	return core.RuleClassification{
		EventType:  event.Type(),
		TaskType:   string(core.TaskTypeInvestigation),
		Priority:   event.Severity(),
		Confidence: 0.4,
		Reasoning:  "no classification rule matched, defaulting to investigation",
	}
}

// DispatchTask resolves the specialist agent for taskType and runs it,
// wrapping the outcome into a terminal task. A missing agent or an agent
// error yields a failed task, which is valid data for the supervisor.
func (t *Toolkit) DispatchTask(ctx context.Context, taskType core.TaskType, input map[string]any) (*core.DelegatedTask, error) {
	if _, err := core.ParseTaskType(string(taskType)); err != nil {
		return nil, core.ErrDispatch(core.CodeAgentUnavailable,
			"cannot dispatch unsupported task type "+string(taskType))
	}

	start := t.clock.Now()
	task := &core.DelegatedTask{
		TaskID:   "task-" + uuid.NewString(),
		TaskType: taskType,
	}

	agent, err := t.registry.ForTaskType(taskType)
	if err != nil {
		task.Status = core.TaskStatusFailed
		task.Error = err.Error()
		task.DurationMS = t.clock.Now().Sub(start).Milliseconds()
		t.logger.Warn("no agent for task", "task_type", taskType, "task_id", task.TaskID)
		return task, nil
	}
	task.AgentName = agent.Name()

	result, err := agent.Run(ctx, input)
	task.DurationMS = t.clock.Now().Sub(start).Milliseconds()
	if err != nil {
		task.Status = core.TaskStatusFailed
		task.Error = err.Error()
		t.logger.Warn("agent run failed", "agent", agent.Name(), "task_id", task.TaskID, "error", err)
		return task, nil
	}
	task.Status = core.TaskStatusCompleted
	task.Result = result
	t.logger.Debug("agent run completed", "agent", agent.Name(), "task_id", task.TaskID)
	return task, nil
}

// EvaluateChainRules matches the finished task against the chain table. The
// first matching rule wins; no match means no follow-up.
func (t *Toolkit) EvaluateChainRules(_ context.Context, task *core.DelegatedTask) core.ChainSuggestion {
	return t.chainWith(t.Rules(), task)
}

func (t *Toolkit) chainWith(rules *RuleSet, task *core.DelegatedTask) core.ChainSuggestion {
	for _, rule := range rules.Chain {
		if rule.matches(task) {
			return core.ChainSuggestion{
				ShouldChain:   rule.ChainTaskType != core.TaskTypeNone,
				ChainTaskType: rule.ChainTaskType,
				Reasoning:     rule.Reasoning,
			}
		}
	}
	return core.ChainSuggestion{ShouldChain: false, ChainTaskType: core.TaskTypeNone}
}

// EvaluateEscalationRules applies the escalation policy: failed tasks
// escalate (paging a human only for critical work), and low-confidence
// classifications escalate to chat.
func (t *Toolkit) EvaluateEscalationRules(_ context.Context, task *core.DelegatedTask, cls *core.EventClassification) core.EscalationSuggestion {
	return t.escalationWith(t.Rules(), task, cls)
}

func (t *Toolkit) escalationWith(rules *RuleSet, task *core.DelegatedTask, cls *core.EventClassification) core.EscalationSuggestion {
	policy := rules.Escalate

	if policy.EscalateOnFailure && task != nil && task.IsFailed() {
		channel := core.ChannelSlack
		if cls != nil && cls.Priority == core.PriorityCritical {
			channel = core.ChannelPagerDuty
		}
		return core.EscalationSuggestion{
			NeedsEscalation: true,
			Channel:         channel,
			Reasoning:       "task failed",
		}
	}
	if cls != nil && cls.Confidence < policy.ConfidenceFloor {
		return core.EscalationSuggestion{
			NeedsEscalation: true,
			Channel:         core.ChannelSlack,
			Reasoning:       fmt.Sprintf("classification confidence %.2f below floor %.2f", cls.Confidence, policy.ConfidenceFloor),
		}
	}
	return core.EscalationSuggestion{NeedsEscalation: false}
}

// SendEscalation delivers the message through the notifier registered for the
// channel.
func (t *Toolkit) SendEscalation(ctx context.Context, channel core.Channel, message string, urgency core.Urgency) error {
	n, ok := t.notifiers[channel]
	if !ok {
		return &core.DomainError{
			Category: core.ErrCatEscalation,
			Code:     core.CodeUnsupportedChannel,
			Message:  "no notifier registered for channel " + string(channel),
		}
	}
	if err := n.Send(ctx, message, urgency); err != nil {
		return core.ErrEscalation("delivering to " + string(channel)).WithCause(err)
	}
	t.logger.Info("escalation delivered", "channel", channel, "urgency", urgency)
	return nil
}
