package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"provider": "openai",
		"model": "gpt-4o-mini",
		"role": "Backend Engineer",
		"max_iterations": 8,
		"probe_iterations": 0,
		"generation_timeout": "45s",
		"compile_timeout": 90,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "Backend Engineer", cfg.Role)
	assert.Equal(t, 8, cfg.MaxIterations)
	require.NotNil(t, cfg.ProbeIterations)
	assert.Equal(t, 0, *cfg.ProbeIterations)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout.Std())
	assert.Equal(t, 90*time.Second, cfg.CompileTimeout.Std())
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_BadDuration(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{"compile_timeout": "soon"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Defaults()},
		{name: "empty", cfg: Config{}},
		{name: "unknown provider", cfg: Config{Provider: "anthropic"}, wantErr: "Provider"},
		{name: "unknown engine", cfg: Config{Engine: "lualatex"}, wantErr: "Engine"},
		{name: "unknown template mode", cfg: Config{TemplateMode: "fancy"}, wantErr: "TemplateMode"},
		{name: "bound above one", cfg: Config{HighBound: 1.5}, wantErr: "HighBound"},
		{name: "negative probes", cfg: Config{ProbeIterations: &negative}, wantErr: "ProbeIterations"},
		{name: "too many workers", cfg: Config{RewriteConcurrency: 64}, wantErr: "RewriteConcurrency"},
		{name: "bad base url", cfg: Config{BaseURL: "not a url"}, wantErr: "BaseURL"},
		{name: "inverted bounds", cfg: Config{LowBound: 0.8, HighBound: 0.4}, wantErr: "low_bound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	zero := 0
	partial := Config{
		Provider:        "ollama",
		Role:            "Data Engineer",
		MaxIterations:   4,
		ProbeIterations: &zero,
	}

	merged := partial.MergeWithDefaults(Defaults())

	// Custom values should be preserved
	assert.Equal(t, "ollama", merged.Provider)
	assert.Equal(t, "Data Engineer", merged.Role)
	assert.Equal(t, 4, merged.MaxIterations)
	assert.Equal(t, 0, *merged.ProbeIterations)

	// Default values should fill in empty fields
	assert.Equal(t, "standard", merged.TemplateMode)
	assert.Equal(t, "auto", merged.Engine)
	assert.Equal(t, 0.3, merged.LowBound)
	assert.Equal(t, 0.9, merged.HighBound)
	assert.Equal(t, ":8080", merged.ListenAddr)
	assert.Equal(t, 30*time.Second, merged.GenerationTimeout.Std())
}

func TestMergeWithDefaults_MissingProbesTakeDefault(t *testing.T) {
	merged := (&Config{}).MergeWithDefaults(Defaults())
	require.NotNil(t, merged.ProbeIterations)
	assert.Equal(t, fitting.DefaultProbeIterations, *merged.ProbeIterations)

	// the default pointer is not shared
	*merged.ProbeIterations = 5
	assert.Equal(t, fitting.DefaultProbeIterations, *Defaults().ProbeIterations)
}

func TestController(t *testing.T) {
	cfg := (&Config{}).MergeWithDefaults(Defaults())
	assert.Equal(t, fitting.DefaultControllerConfig(), cfg.Controller())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ONEPAGE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("DATABASE_URL", "postgres://localhost/onepage")

	cfg := Config{Provider: string(llm.ProviderGemini)}
	cfg.ApplyEnv()

	assert.Equal(t, "gemini-key", cfg.APIKey)
	assert.Equal(t, "postgres://localhost/onepage", cfg.DatabaseURL)

	explicit := Config{Provider: string(llm.ProviderGemini), APIKey: "from-file"}
	explicit.ApplyEnv()
	assert.Equal(t, "from-file", explicit.APIKey)
}

func TestLLM(t *testing.T) {
	cfg := Config{Provider: "ollama", Model: "qwen2.5", BaseURL: "http://gpu-box:11434"}

	lc, err := cfg.LLM()

	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOllama, lc.Provider)
	assert.Equal(t, "qwen2.5", lc.GetModel(llm.TierStandard))
	assert.Equal(t, "http://gpu-box:11434", lc.BaseURL)
}
