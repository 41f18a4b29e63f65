package llm

import (
	"context"
	"fmt"
)

// Client is the generation service used for bullet rewrites, ranking and
// free-text extraction. Implementations must honour ctx deadlines.
type Client interface {
	// GenerateContent returns a plain-text completion.
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GenerateJSON returns a completion reduced to its first JSON value.
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GetModel(tier ModelTier) string
	Close() error
}

// NewClient builds the client for config.Provider. Ollama needs no API key.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	case ProviderOllama:
		return NewOllamaClient(config)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// defaultTemperature keeps rewrites close to the source wording.
const defaultTemperature = 0.1
