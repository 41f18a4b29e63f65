// Package config provides configuration loading and validation for the CLI and API server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/llm"
	"github.com/jonathan/onepage/internal/rendering"
	"github.com/jonathan/onepage/internal/transform"
	"github.com/jonathan/onepage/internal/typeset"
)

// Duration is a time.Duration that reads and writes strings such as "30s".
type Duration time.Duration

// MarshalJSON encodes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds")
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Generation service
	Provider           string   `json:"provider,omitempty" validate:"omitempty,oneof=gemini openai ollama"`
	Model              string   `json:"model,omitempty"`
	BaseURL            string   `json:"base_url,omitempty" validate:"omitempty,url"`
	APIKey             string   `json:"api_key,omitempty"`
	RequestsPerSecond  float64  `json:"requests_per_second,omitempty" validate:"gte=0"`
	GenerationTimeout  Duration `json:"generation_timeout,omitempty" validate:"gte=0"`
	RewriteConcurrency int      `json:"rewrite_concurrency,omitempty" validate:"gte=0,lte=32"`

	// Rendering
	TemplateMode   string   `json:"template_mode,omitempty" validate:"omitempty,oneof=standard fallback"`
	Engine         string   `json:"engine,omitempty" validate:"omitempty,oneof=auto pdflatex docker"`
	DockerImage    string   `json:"docker_image,omitempty"`
	CompileTimeout Duration `json:"compile_timeout,omitempty" validate:"gte=0"`

	// Fitting loop
	Role            string  `json:"role,omitempty"`
	LowBound        float64 `json:"low_bound,omitempty" validate:"gte=0,lte=1"`
	HighBound       float64 `json:"high_bound,omitempty" validate:"gte=0,lte=1"`
	IncreaseStep    float64 `json:"increase_step,omitempty" validate:"gte=0,lte=1"`
	DecreaseStep    float64 `json:"decrease_step,omitempty" validate:"gte=0,lte=1"`
	MaxIterations   int     `json:"max_iterations,omitempty" validate:"gte=0,lte=50"`
	ProbeIterations *int    `json:"probe_iterations,omitempty" validate:"omitempty,gte=0,lte=10"`
	HistorySize     int     `json:"history_size,omitempty" validate:"gte=0"`

	// Server and persistence
	DatabaseURL       string `json:"database_url,omitempty"`
	ListenAddr        string `json:"listen_addr,omitempty"`
	MaxConcurrentFits int    `json:"max_concurrent_fits,omitempty" validate:"gte=0"`

	Verbose bool `json:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	probes := fitting.DefaultProbeIterations
	return Config{
		Provider:           string(llm.ProviderGemini),
		RequestsPerSecond:  2,
		GenerationTimeout:  Duration(transform.DefaultTimeout),
		RewriteConcurrency: transform.DefaultConcurrency,
		TemplateMode:       string(rendering.ModeStandard),
		Engine:             typeset.EngineAuto,
		DockerImage:        typeset.DefaultDockerImage,
		CompileTimeout:     Duration(typeset.CompilationTimeout),
		Role:               "Software Engineer",
		LowBound:           fitting.DefaultLowBound,
		HighBound:          fitting.DefaultHighBound,
		IncreaseStep:       fitting.DefaultIncreaseStep,
		DecreaseStep:       fitting.DefaultDecreaseStep,
		MaxIterations:      fitting.DefaultMaxIterations,
		ProbeIterations:    &probes,
		HistorySize:        fitting.DefaultHistorySize,
		ListenAddr:         ":8080",
		MaxConcurrentFits:  2,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// environment variables read by ApplyEnv, most specific first
var apiKeyEnv = map[string][]string{
	string(llm.ProviderGemini): {"ONEPAGE_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
	string(llm.ProviderOpenAI): {"ONEPAGE_API_KEY", "OPENAI_API_KEY"},
	string(llm.ProviderOllama): {"ONEPAGE_API_KEY"},
}

// ApplyEnv fills the API key and database URL from the environment when unset.
func (c *Config) ApplyEnv() {
	if c.APIKey == "" {
		for _, name := range apiKeyEnv[c.Provider] {
			if v := os.Getenv(name); v != "" {
				c.APIKey = v
				break
			}
		}
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks field ranges and cross-field consistency.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.LowBound != 0 || c.HighBound != 0 {
		if c.LowBound >= c.HighBound {
			return fmt.Errorf("config error: 'low_bound' must be below 'high_bound'")
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String and numeric fields: use default if zero
	fill(&result.Provider, defaults.Provider)
	fill(&result.Model, defaults.Model)
	fill(&result.BaseURL, defaults.BaseURL)
	fill(&result.APIKey, defaults.APIKey)
	fill(&result.TemplateMode, defaults.TemplateMode)
	fill(&result.Engine, defaults.Engine)
	fill(&result.DockerImage, defaults.DockerImage)
	fill(&result.Role, defaults.Role)
	fill(&result.DatabaseURL, defaults.DatabaseURL)
	fill(&result.ListenAddr, defaults.ListenAddr)
	fill(&result.RequestsPerSecond, defaults.RequestsPerSecond)
	fill(&result.GenerationTimeout, defaults.GenerationTimeout)
	fill(&result.RewriteConcurrency, defaults.RewriteConcurrency)
	fill(&result.CompileTimeout, defaults.CompileTimeout)
	fill(&result.LowBound, defaults.LowBound)
	fill(&result.HighBound, defaults.HighBound)
	fill(&result.IncreaseStep, defaults.IncreaseStep)
	fill(&result.DecreaseStep, defaults.DecreaseStep)
	fill(&result.MaxIterations, defaults.MaxIterations)
	fill(&result.HistorySize, defaults.HistorySize)
	fill(&result.MaxConcurrentFits, defaults.MaxConcurrentFits)

	// Zero probes is meaningful, so only a missing value takes the default
	if result.ProbeIterations == nil && defaults.ProbeIterations != nil {
		probes := *defaults.ProbeIterations
		result.ProbeIterations = &probes
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func fill[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

// Controller returns the pressure controller settings.
func (c *Config) Controller() fitting.ControllerConfig {
	cc := fitting.ControllerConfig{
		LowBound:      c.LowBound,
		HighBound:     c.HighBound,
		IncreaseStep:  c.IncreaseStep,
		DecreaseStep:  c.DecreaseStep,
		MaxIterations: c.MaxIterations,
	}
	if c.ProbeIterations != nil {
		cc.ProbeIterations = *c.ProbeIterations
	}
	return cc
}

// LLM returns the generation service configuration for the chosen provider.
func (c *Config) LLM() (*llm.Config, error) {
	cfg, err := llm.ConfigFor(c.Provider)
	if err != nil {
		return nil, err
	}
	if c.Model != "" {
		cfg = cfg.WithAllModels(c.Model)
	}
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	return cfg, nil
}
