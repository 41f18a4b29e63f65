package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), DefaultGeminiConfig(), "")
	assert.Error(t, err)

	_, err = NewClient(context.Background(), DefaultOpenAIConfig(), "")
	assert.Error(t, err)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), &Config{Provider: "anthropic"}, "key")
	assert.Error(t, err)
}

func newOpenAITestServer(t *testing.T, content string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if gotBody != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
}

func TestOpenAIClient_GenerateContent(t *testing.T) {
	var body map[string]any
	server := newOpenAITestServer(t, "  Built Go services  ", &body)
	defer server.Close()

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = server.URL + "/v1"
	client, err := NewOpenAIClient(cfg, "test-key")
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	text, err := client.GenerateContent(context.Background(), "rewrite this", TierStandard)
	require.NoError(t, err)
	assert.Equal(t, "Built Go services", text)
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Nil(t, body["response_format"])
}

func TestOpenAIClient_GenerateJSON(t *testing.T) {
	var body map[string]any
	server := newOpenAITestServer(t, "```json\n{\"order\": [1, 0]}\n```", &body)
	defer server.Close()

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = server.URL + "/v1"
	client, err := NewOpenAIClient(cfg, "test-key")
	require.NoError(t, err)

	text, err := client.GenerateJSON(context.Background(), "rank", TierLite)
	require.NoError(t, err)
	assert.Equal(t, `{"order": [1, 0]}`, text)
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
}

func TestOpenAIClient_EmptyContentIsError(t *testing.T) {
	server := newOpenAITestServer(t, "   ", nil)
	defer server.Close()

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = server.URL + "/v1"
	client, err := NewOpenAIClient(cfg, "test-key")
	require.NoError(t, err)

	_, err = client.GenerateContent(context.Background(), "rewrite", TierStandard)
	assert.Error(t, err)
}

type fakeModel struct {
	reply    string
	err      error
	jsonMode bool
	prompts  []string
}

func (m *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	m.jsonMode = opts.JSONMode
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLangChainClient(t *testing.T) {
	model := &fakeModel{reply: "```\n[\"b\", \"a\"]\n```"}
	client := NewLangChainClient(DefaultOllamaConfig(), map[string]llms.Model{"llama3.1": model})

	text, err := client.GenerateJSON(context.Background(), "rank these", TierLite)
	require.NoError(t, err)
	assert.Equal(t, `["b", "a"]`, text)
	assert.True(t, model.jsonMode)
	assert.Equal(t, []string{"rank these"}, model.prompts)
	assert.Equal(t, "llama3.1", client.GetModel(TierAdvanced))
}

func TestLangChainClient_Errors(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		client := NewLangChainClient(DefaultOllamaConfig(), map[string]llms.Model{"llama3.1": &fakeModel{err: errors.New("connection refused")}})
		_, err := client.GenerateContent(context.Background(), "x", TierStandard)
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("empty reply", func(t *testing.T) {
		client := NewLangChainClient(DefaultOllamaConfig(), map[string]llms.Model{"llama3.1": &fakeModel{reply: "  "}})
		_, err := client.GenerateContent(context.Background(), "x", TierStandard)
		assert.Error(t, err)
	})

	t.Run("unknown model", func(t *testing.T) {
		client := NewLangChainClient(DefaultOllamaConfig(), map[string]llms.Model{})
		_, err := client.GenerateContent(context.Background(), "x", TierStandard)
		assert.Error(t, err)
	})
}

type countingClient struct {
	calls int
}

func (c *countingClient) GenerateContent(context.Context, string, ModelTier) (string, error) {
	c.calls++
	return "ok", nil
}

func (c *countingClient) GenerateJSON(context.Context, string, ModelTier) (string, error) {
	c.calls++
	return "{}", nil
}

func (c *countingClient) GetModel(ModelTier) string { return "counting" }

func (c *countingClient) Close() error { return nil }

func TestRateLimitedClient(t *testing.T) {
	t.Run("disabled returns the wrapped client", func(t *testing.T) {
		inner := &countingClient{}
		assert.Same(t, inner, NewRateLimitedClient(inner, 0, 1))
	})

	t.Run("delegates when tokens are available", func(t *testing.T) {
		inner := &countingClient{}
		client := NewRateLimitedClient(inner, 1000, 2)

		_, err := client.GenerateContent(context.Background(), "a", TierStandard)
		require.NoError(t, err)
		_, err = client.GenerateJSON(context.Background(), "b", TierLite)
		require.NoError(t, err)
		assert.Equal(t, 2, inner.calls)
		assert.Equal(t, "counting", client.GetModel(TierLite))
	})

	t.Run("honours context deadline", func(t *testing.T) {
		inner := &countingClient{}
		client := NewRateLimitedClient(inner, 0.001, 1)

		_, err := client.GenerateContent(context.Background(), "first", TierStandard)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = client.GenerateContent(ctx, "second", TierStandard)
		assert.Error(t, err)
		assert.Equal(t, 1, inner.calls)
	})
}

func TestExtractTextFromResponse(t *testing.T) {
	content := func(parts ...genai.Part) []*genai.Candidate {
		return []*genai.Candidate{{Content: &genai.Content{Parts: parts}}}
	}
	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr string
	}{
		{name: "joins text parts", resp: &genai.GenerateContentResponse{Candidates: content(genai.Text("Cut latency "), genai.Text("40%"))}, want: "Cut latency 40%"},
		{name: "nil response", wantErr: "empty response"},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: "no candidates"},
		{
			name:    "blocked prompt",
			resp:    &genai.GenerateContentResponse{PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety}},
			wantErr: "prompt blocked",
		},
		{
			name:    "safety stop",
			resp:    &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}}},
			wantErr: "safety filter",
		},
		{name: "no text parts", resp: &genai.GenerateContentResponse{Candidates: content(genai.Blob{MIMEType: "image/png"})}, wantErr: "no text parts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractTextFromResponse(tt.resp)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
