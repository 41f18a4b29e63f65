package rewriting

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/onepage/internal/llm"
	"github.com/jonathan/onepage/internal/prompts"
)

const promptFile = "fitting.json"

// Constraints bound a single rewrite.
type Constraints struct {
	MaxChars      int
	Level         string
	Instructions  string
	ClipSentences bool
	// MustKeep lists facts that have to survive verbatim.
	MustKeep []string
	// Missing lists facts a previous attempt dropped; set on retries.
	Missing []string
}

// Generator is the text-generation capability used by the transformer.
type Generator interface {
	// Rewrite returns a new wording of text for role under c.
	Rewrite(ctx context.Context, text, role string, c Constraints) (string, error)
	// Rank returns bullets ordered by relevance to role, most relevant first.
	Rank(ctx context.Context, bullets []string, role string) ([]string, error)
}

// LLMGenerator implements Generator on an llm.Client
type LLMGenerator struct {
	client      llm.Client
	rewriteTier llm.ModelTier
	rankTier    llm.ModelTier
}

// NewLLMGenerator creates a generator that rewrites on the standard tier and ranks on the lite tier
func NewLLMGenerator(client llm.Client) *LLMGenerator {
	return &LLMGenerator{
		client:      client,
		rewriteTier: llm.TierStandard,
		rankTier:    llm.TierLite,
	}
}

// Rewrite rewrites one bullet. Empty or malformed replies are GenerationServiceErrors.
func (g *LLMGenerator) Rewrite(ctx context.Context, text, role string, c Constraints) (string, error) {
	prompt, err := buildRewritingPrompt(text, role, c)
	if err != nil {
		return "", err
	}

	tier := g.rewriteTier
	if len(c.Missing) > 0 {
		tier = llm.TierAdvanced
	}

	responseText, err := g.client.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", &GenerationServiceError{Message: "failed to generate rewrite", Cause: err}
	}

	rewritten, err := parseBulletResponse(responseText)
	if err != nil {
		return "", &GenerationServiceError{Message: "malformed rewrite", Cause: err}
	}
	return rewritten, nil
}

// Rank orders bullets by relevance. The reply must be a permutation of the input.
func (g *LLMGenerator) Rank(ctx context.Context, bullets []string, role string) ([]string, error) {
	if len(bullets) < 2 {
		return append([]string(nil), bullets...), nil
	}

	var numbered strings.Builder
	for i, b := range bullets {
		fmt.Fprintf(&numbered, "%d. %s\n", i+1, b)
	}
	prompt, err := prompts.Render(promptFile, "rank-bullets", map[string]string{
		"Role":    role,
		"Bullets": strings.TrimRight(numbered.String(), "\n"),
	})
	if err != nil {
		return nil, err
	}

	responseText, err := g.client.GenerateJSON(ctx, prompt, g.rankTier)
	if err != nil {
		return nil, &GenerationServiceError{Message: "failed to rank bullets", Cause: err}
	}

	order, err := parseRankResponse(responseText, len(bullets))
	if err != nil {
		return nil, &GenerationServiceError{Message: "malformed ranking", Cause: err}
	}

	ranked := make([]string, len(order))
	for i, idx := range order {
		ranked[i] = bullets[idx]
	}
	return ranked, nil
}

// buildRewritingPrompt constructs the prompt for bullet rewriting
func buildRewritingPrompt(text, role string, c Constraints) (string, error) {
	styleKey := "style-sentences"
	if c.ClipSentences {
		styleKey = "style-clipped"
	}
	style, err := prompts.Get(promptFile, styleKey)
	if err != nil {
		return "", err
	}

	facts := "(none)"
	if len(c.MustKeep) > 0 {
		facts = strings.Join(c.MustKeep, ", ")
	}
	if role == "" {
		role = "general"
	}

	prompt, err := prompts.Render(promptFile, "rewrite-bullet", map[string]string{
		"Role":         role,
		"Bullet":       text,
		"Level":        c.Level,
		"Instructions": c.Instructions,
		"Facts":        facts,
		"MaxChars":     strconv.Itoa(c.MaxChars),
		"Style":        style,
	})
	if err != nil {
		return "", err
	}

	if len(c.Missing) > 0 {
		retry, err := prompts.Render(promptFile, "rewrite-bullet-retry", map[string]string{
			"Missing": strings.Join(c.Missing, ", "),
		})
		if err != nil {
			return "", err
		}
		prompt += retry
	}
	return prompt, nil
}

// parseBulletResponse parses the API response to extract rewritten text
// The API should return just the text, but we handle JSON wrapper if present
func parseBulletResponse(responseText string) (string, error) {
	text := strings.TrimSpace(llm.CleanJSONBlock(responseText))

	// Try to parse as JSON first (in case LLM returns wrapped JSON)
	var jsonResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(text), &jsonResp); err == nil {
		text = strings.TrimSpace(jsonResp.Text)
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	switch {
	case len(lines) == 0:
		return "", fmt.Errorf("empty response")
	case len(lines) > 1:
		return "", fmt.Errorf("expected one line, got %d", len(lines))
	}

	line := strings.TrimLeft(lines[0], "-•*· ")
	line = strings.Trim(line, `"'`)
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("empty response")
	}
	return line, nil
}

// parseRankResponse decodes {"order": [...]} with 1-based positions and checks it is a permutation of n.
func parseRankResponse(responseText string, n int) ([]int, error) {
	var resp struct {
		Order []int `json:"order"`
	}
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(responseText)), &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(resp.Order) != n {
		return nil, fmt.Errorf("expected %d positions, got %d", n, len(resp.Order))
	}

	seen := make([]bool, n)
	order := make([]int, n)
	for i, pos := range resp.Order {
		idx := pos - 1
		if idx < 0 || idx >= n {
			return nil, fmt.Errorf("position %d out of range", pos)
		}
		if seen[idx] {
			return nil, fmt.Errorf("position %d repeated", pos)
		}
		seen[idx] = true
		order[i] = idx
	}
	return order, nil
}
