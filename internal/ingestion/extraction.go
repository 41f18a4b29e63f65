package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/onepage/internal/llm"
	"github.com/jonathan/onepage/internal/prompts"
	"github.com/jonathan/onepage/internal/types"
	rootschemas "github.com/jonathan/onepage/schemas"
)

// LLMExtractor structures free text with the generation service. Replies are
// validated against the content model schema like any other JSON input.
type LLMExtractor struct {
	client llm.Client
	logger *slog.Logger
}

// NewLLMExtractor creates an extractor backed by client.
func NewLLMExtractor(client llm.Client, logger *slog.Logger) *LLMExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMExtractor{client: client, logger: logger}
}

// Extract converts text into a content model.
func (x *LLMExtractor) Extract(ctx context.Context, text string) (types.ContentModel, error) {
	if text == "" {
		return types.ContentModel{}, fmt.Errorf("document is empty")
	}

	if check := prompts.CheckInjection(text); !check.Safe {
		x.logger.Warn("document contains instruction-like text; quoting it", "reason", check.Reason())
	}

	prompt, err := prompts.Render("extraction.json", "extract-content-model", map[string]string{
		"Schema":   rootschemas.ContentModel,
		"Document": prompts.Quote("document", text),
	})
	if err != nil {
		return types.ContentModel{}, err
	}

	// Use TierStandard; structure must survive a long document
	jsonResp, err := x.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return types.ContentModel{}, fmt.Errorf("failed to generate content: %w", err)
	}

	// Clean any markdown wrappers
	return Parse([]byte(llm.CleanJSONBlock(jsonResp)), FormatJSON, "generation service reply")
}
