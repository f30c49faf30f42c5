package llm

import (
	"net/http"
	"sort"
	"sync"
)

// Provider adapts one language model API to the decision client.
type Provider interface {
	// Name returns the provider identifier ("anthropic", "openai", "ollama").
	Name() string

	// BuildURL constructs the completion endpoint from the configured base
	// URL, which may be empty for the provider's public default.
	BuildURL(baseURL string) string

	// SetHeaders adds provider-specific headers, including authentication
	// from apiKey.
	SetHeaders(req *http.Request, apiKey string)

	// BuildRequestBody creates the request payload for a system+user prompt
	// pair.
	BuildRequestBody(model, systemPrompt, userPrompt string, maxTokens int) ([]byte, error)

	// ParseResponse extracts the generated text from a response body.
	ParseResponse(body []byte) (string, error)
}

var (
	providersMu sync.RWMutex
	providers   = make(map[string]Provider)
)

// RegisterProvider makes a provider available by name.
func RegisterProvider(p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[p.Name()] = p
}

// GetProvider retrieves a registered provider, or nil.
func GetProvider(name string) Provider {
	providersMu.RLock()
	defer providersMu.RUnlock()
	return providers[name]
}

// ProviderNames returns registered provider names sorted alphabetically.
func ProviderNames() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
