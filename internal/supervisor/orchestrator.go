// Package supervisor implements the ShieldOps supervisor workflow: an
// incoming operational event is classified, delegated to a specialist agent,
// evaluated, optionally chained into follow-up work, optionally escalated to
// a human, and finalized with a complete audit trail.
package supervisor

import (
	"context"
	"time"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/events"
	"github.com/shieldops/shieldops/internal/logging"
	"github.com/shieldops/shieldops/internal/metrics"
)

// llmRefineThreshold is the rule confidence below which Classify asks the
// structured-decision client for a second opinion.
const llmRefineThreshold = 0.9

// lowConfidenceThreshold is the classification confidence below which an
// escalation cites low confidence as its reason.
const lowConfidenceThreshold = 0.5

// Orchestrator sequences the workflow stages for one session at a time. It
// holds no per-session state, so a single instance can run any number of
// concurrent sessions.
type Orchestrator struct {
	toolkit core.Toolkit
	llm     core.DecisionClient
	store   core.SessionStore
	bus     *events.EventBus
	metrics *metrics.Metrics
	clock   core.Clock
	logger  *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDecisionClient enables LLM refinement of rule-based decisions. Without
// it every decision keeps its baseline provenance.
func WithDecisionClient(c core.DecisionClient) Option {
	return func(o *Orchestrator) { o.llm = c }
}

// WithStore persists every finished session for audit.
func WithStore(s core.SessionStore) Option {
	return func(o *Orchestrator) { o.store = s }
}

// WithEventBus publishes session lifecycle events.
func WithEventBus(b *events.EventBus) Option {
	return func(o *Orchestrator) { o.bus = b }
}

// WithMetrics records prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the wall clock, for tests.
func WithClock(c core.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// New creates an orchestrator around an injected toolkit. The toolkit is a
// required constructor dependency; there is no process-wide default.
func New(toolkit core.Toolkit, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		toolkit: toolkit,
		clock:   core.SystemClock{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// route is one guarded edge of the transition table. The first edge whose
// guard passes is taken; a nil guard always passes.
type route struct {
	guard func(*core.SessionState) bool
	next  core.Stage
}

// routes is the workflow transition table:
// classify → dispatch → evaluate → [chain] → [escalate] → finalize.
// There is no cycle; each session traverses the path at most once.
var routes = map[core.Stage][]route{
	core.StageClassify: {{next: core.StageDispatch}},
	core.StageDispatch: {{next: core.StageEvaluate}},
	core.StageEvaluate: {
		{guard: func(s *core.SessionState) bool { return s.ShouldChain }, next: core.StageChain},
		{guard: func(s *core.SessionState) bool { return s.NeedsEscalation }, next: core.StageEscalate},
		{next: core.StageFinalize},
	},
	core.StageChain: {
		{guard: func(s *core.SessionState) bool { return s.NeedsEscalation }, next: core.StageEscalate},
		{next: core.StageFinalize},
	},
	core.StageEscalate: {{next: core.StageFinalize}},
}

func nextStage(current core.Stage, s *core.SessionState) core.Stage {
	for _, r := range routes[current] {
		if r.guard == nil || r.guard(s) {
			return r.next
		}
	}
	return core.StageFinalize
}

// stageFunc executes one stage against the session, using the toolkit view
// snapshotted at session start. A non-nil error is a data error that fails
// the session; precondition failures are reported via the state itself.
type stageFunc func(ctx context.Context, tk core.Toolkit, s *core.SessionState) error

// Run executes a complete session for one incoming event. The returned state
// always carries a finished audit trail, even on the failed path; the error
// reports persistence problems only.
func (o *Orchestrator) Run(ctx context.Context, event core.Event) (*core.SessionState, error) {
	s := core.NewSessionState(event)
	log := o.logger.WithSession(s.SessionID)

	// One snapshot per session: a rules reload lands in later sessions, so
	// every stage here decides against the same tables.
	tk := o.toolkit.Snapshot()

	log.Info("starting session",
		"event_type", event.Type(),
		"severity", event.Severity(),
	)
	if o.metrics != nil {
		o.metrics.SessionsStarted.Inc()
	}
	o.publish(events.NewSessionStarted(s.SessionID, event))

	stageFuncs := map[core.Stage]stageFunc{
		core.StageClassify: o.classify,
		core.StageDispatch: o.dispatch,
		core.StageEvaluate: o.evaluate,
		core.StageChain:    o.chain,
		core.StageEscalate: o.escalate,
	}

	for stage := core.StageClassify; stage != core.StageFinalize; {
		start := o.clock.Now()
		if err := stageFuncs[stage](ctx, tk, s); err != nil {
			log.Error("stage failed", "stage", stage, "error", err)
			s.Fail(err.Error())
		}
		o.observeStage(stage, o.clock.Now().Sub(start))
		o.publishLastStep(s)

		if s.IsFailed() {
			break
		}
		stage = nextStage(stage, s)
	}

	// Finalize runs unconditionally so every session, failed ones included,
	// ends with duration bookkeeping and a summary step.
	o.finalize(s)
	o.publishLastStep(s)

	if s.IsFailed() {
		if o.metrics != nil {
			o.metrics.SessionsFailed.Inc()
		}
		log.Warn("session failed", "error", s.Error, "steps", len(s.ReasoningChain))
	} else {
		if o.metrics != nil {
			o.metrics.SessionsCompleted.Inc()
		}
		log.Info("session complete",
			"tasks", len(s.DelegatedTasks),
			"chains", len(s.Chained),
			"escalations", len(s.Escalations),
			"duration_ms", s.DurationMS,
		)
	}
	o.publishPriority(events.NewSessionFinished(s))

	if o.store != nil {
		if err := o.store.Save(ctx, s); err != nil {
			log.Error("saving session", "error", err)
			return s, err
		}
	}
	return s, nil
}

func (o *Orchestrator) observeStage(stage core.Stage, d time.Duration) {
	if o.metrics != nil {
		o.metrics.StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	}
}

func (o *Orchestrator) publish(ev events.Event) {
	if o.bus != nil {
		o.bus.Publish(ev)
	}
}

func (o *Orchestrator) publishPriority(ev events.Event) {
	if o.bus != nil {
		o.bus.PublishPriority(ev)
	}
}

// publishLastStep emits a stage_completed event for the newest audit entry.
func (o *Orchestrator) publishLastStep(s *core.SessionState) {
	if o.bus == nil || len(s.ReasoningChain) == 0 {
		return
	}
	step := s.ReasoningChain[len(s.ReasoningChain)-1]
	o.bus.Publish(events.NewStageCompleted(s.SessionID, step))
}
