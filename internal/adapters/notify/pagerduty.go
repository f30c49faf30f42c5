package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shieldops/shieldops/internal/core"
)

// defaultPagerDutyURL is the Events API v2 enqueue endpoint.
const defaultPagerDutyURL = "https://events.pagerduty.com/v2/enqueue"

// PagerDutyNotifier triggers incidents through the PagerDuty Events API v2.
type PagerDutyNotifier struct {
	routingKey string
	apiURL     string
	source     string
	httpClient *http.Client
}

// PagerDutyOption configures a PagerDutyNotifier.
type PagerDutyOption func(*PagerDutyNotifier)

// WithPagerDutyURL overrides the Events API endpoint, for tests.
func WithPagerDutyURL(url string) PagerDutyOption {
	return func(n *PagerDutyNotifier) { n.apiURL = url }
}

// WithPagerDutyHTTPClient sets a custom HTTP client.
func WithPagerDutyHTTPClient(c *http.Client) PagerDutyOption {
	return func(n *PagerDutyNotifier) { n.httpClient = c }
}

// NewPagerDuty creates a PagerDuty notifier for one routing key.
func NewPagerDuty(routingKey string, opts ...PagerDutyOption) *PagerDutyNotifier {
	n := &PagerDutyNotifier{
		routingKey: routingKey,
		apiURL:     defaultPagerDutyURL,
		source:     "shieldops-supervisor",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type pagerdutyEvent struct {
	RoutingKey  string           `json:"routing_key"`
	EventAction string           `json:"event_action"`
	Payload     pagerdutyPayload `json:"payload"`
}

type pagerdutyPayload struct {
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Severity string `json:"severity"`
}

// Send triggers an incident. Immediate urgency maps to critical severity,
// everything else to warning.
func (n *PagerDutyNotifier) Send(ctx context.Context, message string, urgency core.Urgency) error {
	severity := "warning"
	if urgency == core.UrgencyImmediate {
		severity = "critical"
	}
	body, err := json.Marshal(pagerdutyEvent{
		RoutingKey:  n.routingKey,
		EventAction: "trigger",
		Payload: pagerdutyPayload{
			Summary:  message,
			Source:   n.source,
			Severity: severity,
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling pagerduty event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating pagerduty request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to pagerduty: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("pagerduty returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
