package supervisor

import (
	"fmt"

	"github.com/shieldops/shieldops/internal/core"
)

// finalize closes the session: computes its duration, appends the summary
// step, and marks the session complete unless it already failed. It runs for
// every session, failed ones included, so the audit trail always ends with a
// summary of what happened.
func (o *Orchestrator) finalize(s *core.SessionState) {
	start := o.clock.Now()
	if !s.SessionStart.IsZero() {
		s.DurationMS = start.Sub(s.SessionStart).Milliseconds()
	}

	summary := fmt.Sprintf("session finished: %d tasks, %d chained workflows, %d escalations",
		len(s.DelegatedTasks), len(s.Chained), len(s.Escalations))
	s.AppendStep(core.StageFinalize, "session wrap-up", summary,
		o.clock.Now().Sub(start), "")

	if !s.IsFailed() {
		s.CurrentStep = core.StageComplete
	}
}
