package toolkit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldops/shieldops/internal/agents"
	"github.com/shieldops/shieldops/internal/core"
)

type stubNotifier struct {
	messages []string
	urgency  []core.Urgency
	err      error
}

func (n *stubNotifier) Send(_ context.Context, msg string, u core.Urgency) error {
	n.messages = append(n.messages, msg)
	n.urgency = append(n.urgency, u)
	return n.err
}

func newTestToolkit(t *testing.T, opts ...Option) *Toolkit {
	t.Helper()
	return New(agents.DefaultRegistry(nil), nil, opts...)
}

func TestClassifyMatchesRule(t *testing.T) {
	tk := newTestToolkit(t)
	got := tk.ClassifyEventRules(context.Background(), core.Event{
		"type": "disk_full", "severity": "high",
	})
	assert.Equal(t, "remediation", got.TaskType)
	assert.Equal(t, "high", got.Priority)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
}

func TestClassifyFallbackIsLowConfidenceInvestigation(t *testing.T) {
	tk := newTestToolkit(t)
	got := tk.ClassifyEventRules(context.Background(), core.Event{
		"type": "solar_flare", "severity": "low",
	})
	assert.Equal(t, "investigation", got.TaskType)
	assert.Equal(t, "low", got.Priority)
	assert.Less(t, got.Confidence, 0.5)
}

func TestDispatchCompletedTask(t *testing.T) {
	tk := newTestToolkit(t)
	task, err := tk.DispatchTask(context.Background(), core.TaskTypeRemediation,
		map[string]any{"type": "disk_full", "resource_id": "db-7"})
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusCompleted, task.Status)
	assert.Equal(t, "remediation-runner", task.AgentName)
	assert.True(t, task.HasResult())
	assert.NotEmpty(t, task.TaskID)
}

func TestDispatchAgentErrorYieldsFailedTask(t *testing.T) {
	tk := newTestToolkit(t)
	// The remediation runner has no playbook for this event type.
	task, err := tk.DispatchTask(context.Background(), core.TaskTypeRemediation,
		map[string]any{"type": "solar_flare"})
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusFailed, task.Status)
	assert.Contains(t, task.Error, "no remediation playbook")
}

func TestDispatchMissingAgentYieldsFailedTask(t *testing.T) {
	tk := New(agents.NewRegistry(), nil)
	task, err := tk.DispatchTask(context.Background(), core.TaskTypeMonitoring, nil)
	require.NoError(t, err)
	assert.Equal(t, core.TaskStatusFailed, task.Status)
	assert.Contains(t, task.Error, "no agent registered")
}

func TestDispatchUnsupportedTaskType(t *testing.T) {
	tk := newTestToolkit(t)
	_, err := tk.DispatchTask(context.Background(), "time_travel", nil)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatDispatch))
}

func TestSnapshotPinsRuleTables(t *testing.T) {
	tk := newTestToolkit(t)
	snap := tk.Snapshot()

	tk.SwapRules(&RuleSet{
		Classify: []ClassifyRule{{MatchType: "disk_full", TaskType: "investigation",
			Confidence: 0.6, Reasoning: "reassessed"}},
		Escalate: EscalationPolicy{ConfidenceFloor: 0.9},
	})

	// The snapshot still serves the tables from before the swap.
	got := snap.ClassifyEventRules(context.Background(), core.Event{
		"type": "disk_full", "severity": "high",
	})
	assert.Equal(t, "remediation", got.TaskType)

	task := &core.DelegatedTask{
		TaskType: core.TaskTypeInvestigation,
		Status:   core.TaskStatusCompleted,
		Result:   map[string]any{"suspected_cause": "disk pressure"},
	}
	assert.True(t, snap.EvaluateChainRules(context.Background(), task).ShouldChain)

	// The shared toolkit and later snapshots see the new tables.
	assert.Equal(t, "investigation",
		tk.ClassifyEventRules(context.Background(), core.Event{"type": "disk_full"}).TaskType)
	assert.False(t, tk.Snapshot().EvaluateChainRules(context.Background(), task).ShouldChain)
}

func TestChainRuleFiresOnTruthyResultKey(t *testing.T) {
	tk := newTestToolkit(t)
	withFindings := &core.DelegatedTask{
		TaskType: core.TaskTypeSecurityScan,
		Status:   core.TaskStatusCompleted,
		Result:   map[string]any{"findings": []string{"anomalous access"}},
	}
	got := tk.EvaluateChainRules(context.Background(), withFindings)
	assert.True(t, got.ShouldChain)
	assert.Equal(t, "investigation", got.ChainTaskType)

	clean := &core.DelegatedTask{
		TaskType: core.TaskTypeSecurityScan,
		Status:   core.TaskStatusCompleted,
		Result:   map[string]any{"findings": []string{}},
	}
	got = tk.EvaluateChainRules(context.Background(), clean)
	assert.False(t, got.ShouldChain)
}

func TestChainNoRuleForRemediation(t *testing.T) {
	tk := newTestToolkit(t)
	task := &core.DelegatedTask{
		TaskType: core.TaskTypeRemediation,
		Status:   core.TaskStatusCompleted,
		Result:   map[string]any{"applied": true},
	}
	got := tk.EvaluateChainRules(context.Background(), task)
	assert.False(t, got.ShouldChain)
	assert.Equal(t, core.TaskTypeNone, got.ChainTaskType)
}

func TestChainSkipsFailedTasks(t *testing.T) {
	tk := newTestToolkit(t)
	task := &core.DelegatedTask{
		TaskType: core.TaskTypeSecurityScan,
		Status:   core.TaskStatusFailed,
		Result:   map[string]any{"findings": []string{"x"}},
	}
	got := tk.EvaluateChainRules(context.Background(), task)
	assert.False(t, got.ShouldChain)
}

func TestEscalationPolicy(t *testing.T) {
	tk := newTestToolkit(t)
	failed := &core.DelegatedTask{Status: core.TaskStatusFailed}
	done := &core.DelegatedTask{Status: core.TaskStatusCompleted}
	critical := &core.EventClassification{Priority: core.PriorityCritical, Confidence: 0.9}
	high := &core.EventClassification{Priority: core.PriorityHigh, Confidence: 0.9}
	vague := &core.EventClassification{Priority: core.PriorityMedium, Confidence: 0.3}

	got := tk.EvaluateEscalationRules(context.Background(), failed, critical)
	assert.True(t, got.NeedsEscalation)
	assert.Equal(t, core.ChannelPagerDuty, got.Channel)

	got = tk.EvaluateEscalationRules(context.Background(), failed, high)
	assert.True(t, got.NeedsEscalation)
	assert.Equal(t, core.ChannelSlack, got.Channel)

	got = tk.EvaluateEscalationRules(context.Background(), done, vague)
	assert.True(t, got.NeedsEscalation)
	assert.Equal(t, core.ChannelSlack, got.Channel)

	got = tk.EvaluateEscalationRules(context.Background(), done, high)
	assert.False(t, got.NeedsEscalation)
}

func TestSendEscalationRoutesByChannel(t *testing.T) {
	slack := &stubNotifier{}
	pager := &stubNotifier{}
	tk := newTestToolkit(t,
		WithNotifier(core.ChannelSlack, slack),
		WithNotifier(core.ChannelPagerDuty, pager),
	)

	err := tk.SendEscalation(context.Background(), core.ChannelPagerDuty, "db down", core.UrgencyImmediate)
	require.NoError(t, err)
	assert.Empty(t, slack.messages)
	require.Len(t, pager.messages, 1)
	assert.Equal(t, core.UrgencyImmediate, pager.urgency[0])
}

func TestSendEscalationUnknownChannel(t *testing.T) {
	tk := newTestToolkit(t)
	err := tk.SendEscalation(context.Background(), core.ChannelSlack, "hello", core.UrgencySoon)
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatEscalation))
}

func TestSendEscalationDeliveryError(t *testing.T) {
	slack := &stubNotifier{err: errors.New("webhook 500")}
	tk := newTestToolkit(t, WithNotifier(core.ChannelSlack, slack))

	err := tk.SendEscalation(context.Background(), core.ChannelSlack, "hello", core.UrgencySoon)
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))
}
