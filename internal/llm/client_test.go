package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldops/shieldops/internal/core"
)

type decisionOut struct {
	TaskType   string  `json:"task_type"`
	Confidence float64 `json:"confidence"`
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 2, BackoffBase: time.Millisecond, BackoffMultiplier: 1, MaxBackoff: time.Millisecond}
}

func newOllamaTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(
		Config{Provider: "ollama", Model: "llama3", BaseURL: srv.URL},
		WithRetryConfig(fastRetry()),
	)
	require.NoError(t, err)
	return c
}

func TestStructuredDecodesFencedJSON(t *testing.T) {
	content := "Here you go:\n```json\n{\"task_type\": \"remediation\", \"confidence\": 0.8,}\n```"
	c := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		body, err := json.Marshal(map[string]any{
			"message": map[string]any{"content": content},
			"done":    true,
		})
		require.NoError(t, err)
		w.Write(body)
	})

	var out decisionOut
	require.NoError(t, c.Structured(context.Background(), "sys", "user", &out))
	assert.Equal(t, "remediation", out.TaskType)
	assert.InDelta(t, 0.8, out.Confidence, 1e-9)
}

func TestStructuredRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"message":{"content":"{\"task_type\":\"monitoring\",\"confidence\":0.6}"},"done":true}`))
	})

	var out decisionOut
	require.NoError(t, c.Structured(context.Background(), "sys", "user", &out))
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "monitoring", out.TaskType)
}

func TestStructuredFatalErrorSkipsRetry(t *testing.T) {
	var calls atomic.Int32
	c := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	var out decisionOut
	err := c.Structured(context.Background(), "sys", "user", &out)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, core.IsCategory(err, core.ErrCatLLM))
}

func TestStructuredErrorsWithoutJSON(t *testing.T) {
	c := newOllamaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"content":"I cannot help with that."},"done":true}`))
	})

	var out decisionOut
	err := c.Structured(context.Background(), "sys", "user", &out)
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(Config{Provider: "carrier_pigeon", Model: "m"})
	require.Error(t, err)
	assert.True(t, core.IsCategory(err, core.ErrCatConfig))
}

func TestNewClientRequiresModel(t *testing.T) {
	_, err := NewClient(Config{Provider: "ollama"})
	require.Error(t, err)
}

func TestOpenAIRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"task_type\":\"investigation\",\"confidence\":0.7}"}}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(
		Config{Provider: "openai", Model: "gpt-4o-mini", BaseURL: srv.URL, APIKey: "sk-test"},
		WithRetryConfig(fastRetry()),
	)
	require.NoError(t, err)

	var out decisionOut
	require.NoError(t, c.Structured(context.Background(), "sys", "user", &out))
	assert.Equal(t, "investigation", out.TaskType)
}

func TestAnthropicRequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"task_type\":\"security_scan\",\"confidence\":0.9}"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	c, err := NewClient(
		Config{Provider: "anthropic", Model: "claude-sonnet", BaseURL: srv.URL, APIKey: "key-test"},
		WithRetryConfig(fastRetry()),
	)
	require.NoError(t, err)

	var out decisionOut
	require.NoError(t, c.Structured(context.Background(), "sys", "user", &out))
	assert.Equal(t, "security_scan", out.TaskType)
}
