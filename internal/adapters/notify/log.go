package notify

import (
	"context"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/logging"
)

// LogNotifier writes escalations to the log. It is the default delivery
// backend for channels without a configured integration, so escalations are
// never silently discarded.
type LogNotifier struct {
	logger  *logging.Logger
	channel core.Channel
}

// NewLog creates a log-only notifier for one channel.
func NewLog(logger *logging.Logger, channel core.Channel) *LogNotifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogNotifier{logger: logger, channel: channel}
}

// Send logs the escalation.
func (n *LogNotifier) Send(_ context.Context, message string, urgency core.Urgency) error {
	n.logger.Warn("escalation (log delivery)",
		"channel", n.channel,
		"urgency", urgency,
		"message", message,
	)
	return nil
}
