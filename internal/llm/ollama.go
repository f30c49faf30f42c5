package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// OllamaProvider implements the Ollama chat API for local models.
type OllamaProvider struct{}

func init() {
	RegisterProvider(&OllamaProvider{})
}

func (o *OllamaProvider) Name() string { return "ollama" }

// BuildURL constructs the chat endpoint.
func (o *OllamaProvider) BuildURL(baseURL string) string {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return strings.TrimSuffix(baseURL, "/") + "/api/chat"
}

// SetHeaders is a no-op: local Ollama needs no authentication.
func (o *OllamaProvider) SetHeaders(_ *http.Request, _ string) {}

type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequestBody creates a non-streaming chat request.
func (o *OllamaProvider) BuildRequestBody(model, systemPrompt, userPrompt string, _ int) ([]byte, error) {
	messages := []ollamaMessage{}
	if systemPrompt != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: userPrompt})
	return json.Marshal(ollamaRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	})
}

type ollamaResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// ParseResponse extracts the message content.
func (o *OllamaProvider) ParseResponse(body []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse ollama response: %w", err)
	}
	return resp.Message.Content, nil
}
