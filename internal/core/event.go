package core

// Event is the raw operational signal that starts a supervisor session.
// It is an open mapping: alert pipelines attach arbitrary keys, but the
// classifier only relies on the well-known ones below.
type Event map[string]any

// Well-known event keys.
const (
	EventKeyType        = "type"
	EventKeySeverity    = "severity"
	EventKeySource      = "source"
	EventKeyDescription = "description"
	EventKeyResourceID  = "resource_id"
)

// GetString returns the string value for key, or "" if absent or not a string.
func (e Event) GetString(key string) string {
	if e == nil {
		return ""
	}
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

// Type returns the event type (e.g. "disk_full", "intrusion_detected").
func (e Event) Type() string { return e.GetString(EventKeyType) }

// Severity returns the event severity (e.g. "low", "high", "critical").
func (e Event) Severity() string { return e.GetString(EventKeySeverity) }

// Source returns the originating system (e.g. "ids", "node_exporter").
func (e Event) Source() string { return e.GetString(EventKeySource) }

// Description returns the free-text description.
func (e Event) Description() string { return e.GetString(EventKeyDescription) }

// ResourceID returns the affected resource identifier.
func (e Event) ResourceID() string { return e.GetString(EventKeyResourceID) }

// Clone returns a shallow copy of the event.
func (e Event) Clone() Event {
	if e == nil {
		return nil
	}
	out := make(Event, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
