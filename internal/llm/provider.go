package llm

import (
	"context"

	"github.com/noesis-ai/noesis/internal/model"
)

// Provider defines the interface for chat-model providers.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a prompt and returns the raw model response
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest contains the input for one model call.
type CompletionRequest struct {
	// System is the system prompt (optional)
	System string

	// Prompt is the user prompt
	Prompt string

	// Model is the specific model to use (empty = provider default)
	Model string

	// MaxTokens limits the response length
	MaxTokens int

	// Temperature controls sampling (0 = provider default of 0.1)
	Temperature float32

	// JSONOnly requests strict structured output where the provider
	// supports it (OpenAI response_format, Ollama format=json)
	JSONOnly bool
}

// CompletionResponse contains the model's output.
type CompletionResponse struct {
	// Text is the raw response text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption (0 when unreported)
	TokensUsed int
}

// Config holds chat-model provider configuration.
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g. Ollama, vLLM)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "ollama",
		Timeout:   60,
		MaxTokens: 1024,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  mc.HTTPProxy,
		HTTPSProxy: mc.HTTPSProxy,
		NoProxy:    mc.NoProxy,
	}
}
