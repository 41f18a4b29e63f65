package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LangChainClient implements Client on top of langchaingo models, one per model name.
type LangChainClient struct {
	models map[string]llms.Model
	config *Config
}

// NewOllamaClient creates a client for a local Ollama server
func NewOllamaClient(config *Config) (*LangChainClient, error) {
	models := make(map[string]llms.Model)
	for _, name := range config.Models {
		if _, ok := models[name]; ok {
			continue
		}
		opts := []ollama.Option{ollama.WithModel(name)}
		if config.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(config.BaseURL))
		}
		model, err := ollama.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama model %s: %w", name, err)
		}
		models[name] = model
	}
	return NewLangChainClient(config, models), nil
}

// NewLangChainClient wraps already-constructed langchaingo models keyed by model name.
func NewLangChainClient(config *Config, models map[string]llms.Model) *LangChainClient {
	return &LangChainClient{models: models, config: config}
}

// GenerateContent generates text content using the specified model tier
func (c *LangChainClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, prompt, tier, llms.WithTemperature(defaultTemperature))
}

// GenerateJSON generates JSON content using the specified model tier
func (c *LangChainClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.generate(ctx, prompt, tier, llms.WithTemperature(defaultTemperature), llms.WithJSONMode())
	if err != nil {
		return "", err
	}
	return ExtractJSON(text), nil
}

func (c *LangChainClient) generate(ctx context.Context, prompt string, tier ModelTier, opts ...llms.CallOption) (string, error) {
	name := c.config.GetModel(tier)
	model, ok := c.models[name]
	if !ok {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}
	text, err := llms.GenerateFromSinglePrompt(ctx, model, prompt, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty content in response")
	}
	return text, nil
}

// GetModel returns the model name for a tier
func (c *LangChainClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op for langchaingo models.
func (c *LangChainClient) Close() error {
	return nil
}
