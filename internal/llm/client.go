package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shieldops/shieldops/internal/core"
	"github.com/shieldops/shieldops/internal/logging"
)

// maxResponseSize limits the response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Config identifies the provider, model, and endpoint the client talks to.
type Config struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

// Client sends structured-decision prompts to one language model endpoint.
// It implements the supervisor's DecisionClient port: any inability to
// produce a schema-conformant result is an error, and the supervisor handles
// every error the same way.
type Client struct {
	cfg        Config
	provider   Provider
	httpClient *http.Client
	retry      RetryConfig
	logger     *logging.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(rc RetryConfig) ClientOption {
	return func(cl *Client) { cl.retry = rc }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a client for the configured provider.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	provider := GetProvider(cfg.Provider)
	if provider == nil {
		return nil, core.ErrConfig(core.CodeInvalidConfig,
			fmt.Sprintf("unknown llm provider %q (have %v)", cfg.Provider, ProviderNames()))
	}
	if cfg.Model == "" {
		return nil, core.ErrConfig(core.CodeInvalidConfig, "llm model is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		provider:   provider,
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Structured sends the prompt pair and decodes the model's JSON reply into
// out. Transient failures are retried with backoff; whatever error remains is
// reported to the caller, which falls back to its rule-based result.
func (c *Client) Structured(ctx context.Context, systemPrompt, userPrompt string, out any) error {
	var lastErr error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		content, err := c.complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			// A malformed reply is retried like any transient failure.
			err = decodeInto(content, out)
			if err == nil {
				return nil
			}
		}
		lastErr = err
		if isFatal(err) {
			break
		}
		if attempt < c.retry.MaxAttempts {
			backoff := c.retry.backoff(attempt)
			c.logger.Debug("decision request failed, retrying",
				"attempt", attempt, "backoff", backoff, "error", err)
			select {
			case <-ctx.Done():
				return core.ErrLLM("CANCELLED", "decision request cancelled").WithCause(ctx.Err())
			case <-time.After(backoff):
			}
		}
	}
	return core.ErrLLM("STRUCTURED_DECISION_FAILED",
		"provider "+c.cfg.Provider+" produced no usable decision").WithCause(lastErr)
}

// complete performs one HTTP round trip and returns the generated text.
func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := c.provider.BuildRequestBody(c.cfg.Model, systemPrompt, userPrompt, c.cfg.MaxTokens)
	if err != nil {
		return "", newFatal(fmt.Errorf("build request body: %w", err))
	}

	url := c.provider.BuildURL(c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", newFatal(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	c.provider.SetHeaders(req, c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyHTTPError(resp.StatusCode, respBody)
	}
	return c.provider.ParseResponse(respBody)
}

// decodeInto extracts the JSON object from the model output and unmarshals it.
func decodeInto(content string, out any) error {
	raw := ExtractJSON(content)
	if raw == "" {
		return fmt.Errorf("no JSON object in model output")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode model output: %w", err)
	}
	return nil
}

// classifyHTTPError splits HTTP failures into transient (retry) and fatal
// (give up) errors.
func classifyHTTPError(statusCode int, body []byte) error {
	snippet := string(body)
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	err := fmt.Errorf("llm api error (status %d): %s", statusCode, snippet)

	switch {
	case statusCode == http.StatusTooManyRequests:
		return err
	case statusCode >= 500:
		return err
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return newFatal(err)
	case statusCode == http.StatusBadRequest:
		return newFatal(err)
	default:
		return newFatal(err)
	}
}
