// Package metrics exposes prometheus collectors for the supervisor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all supervisor collectors.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsCompleted prometheus.Counter
	SessionsFailed    prometheus.Counter
	StageDuration     *prometheus.HistogramVec
	TasksDispatched   *prometheus.CounterVec
	EscalationsSent   *prometheus.CounterVec
	LLMFallbacks      prometheus.Counter
}

// New registers all collectors against reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shieldops",
			Name:      "sessions_started_total",
			Help:      "Supervisor sessions started.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shieldops",
			Name:      "sessions_completed_total",
			Help:      "Supervisor sessions that reached complete.",
		}),
		SessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shieldops",
			Name:      "sessions_failed_total",
			Help:      "Supervisor sessions that hit a precondition failure.",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shieldops",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each workflow stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		TasksDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shieldops",
			Name:      "tasks_dispatched_total",
			Help:      "Delegated tasks by type and terminal status.",
		}, []string{"task_type", "status"}),
		EscalationsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shieldops",
			Name:      "escalations_sent_total",
			Help:      "Escalations by delivery channel.",
		}, []string{"channel"}),
		LLMFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "shieldops",
			Name:      "llm_fallbacks_total",
			Help:      "Structured-decision calls that fell back to rule results.",
		}),
	}
}
