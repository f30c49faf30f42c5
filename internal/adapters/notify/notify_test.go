package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldops/shieldops/internal/core"
)

func TestSlackSend(t *testing.T) {
	var got slackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL, WithSlackChannel("#ops"))
	require.NoError(t, n.Send(context.Background(), "disk full on db-7", core.UrgencySoon))
	assert.Equal(t, "disk full on db-7", got.Text)
	assert.Equal(t, "#ops", got.Channel)
}

func TestSlackImmediatePrefix(t *testing.T) {
	var got slackPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := NewSlack(srv.URL)
	require.NoError(t, n.Send(context.Background(), "db down", core.UrgencyImmediate))
	assert.Contains(t, got.Text, ":rotating_light:")
}

func TestSlackNon200IsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL)
	err := n.Send(context.Background(), "hello", core.UrgencySoon)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestPagerDutySend(t *testing.T) {
	var got pagerdutyEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewPagerDuty("rk-123", WithPagerDutyURL(srv.URL))
	require.NoError(t, n.Send(context.Background(), "db down", core.UrgencyImmediate))
	assert.Equal(t, "rk-123", got.RoutingKey)
	assert.Equal(t, "trigger", got.EventAction)
	assert.Equal(t, "critical", got.Payload.Severity)
	assert.Equal(t, "db down", got.Payload.Summary)
}

func TestPagerDutySoonIsWarning(t *testing.T) {
	var got pagerdutyEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewPagerDuty("rk-123", WithPagerDutyURL(srv.URL))
	require.NoError(t, n.Send(context.Background(), "degraded", core.UrgencySoon))
	assert.Equal(t, "warning", got.Payload.Severity)
}

func TestPagerDutyRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad routing key", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewPagerDuty("", WithPagerDutyURL(srv.URL))
	require.Error(t, n.Send(context.Background(), "x", core.UrgencySoon))
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := NewLog(nil, core.ChannelSlack)
	require.NoError(t, n.Send(context.Background(), "anything", core.UrgencyImmediate))
}
