// Package pipeline assembles the fitting loop from configuration and runs it end to end.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonathan/onepage/internal/config"
	"github.com/jonathan/onepage/internal/fitting"
	"github.com/jonathan/onepage/internal/llm"
	"github.com/jonathan/onepage/internal/rendering"
	"github.com/jonathan/onepage/internal/rewriting"
	"github.com/jonathan/onepage/internal/scoring"
	"github.com/jonathan/onepage/internal/transform"
	"github.com/jonathan/onepage/internal/typeset"
	"github.com/jonathan/onepage/internal/types"
)

// Components are the collaborators of a fitting loop.
type Components struct {
	Transformer fitting.Transformer
	Measurer    fitting.Measurer
	Scorer      scoring.Scorer
	// Client is closed with the Fitter. It may be nil.
	Client llm.Client
}

// Fitter runs fitting loops with one set of components. It is safe for
// concurrent use; every Fit builds its own loop.
type Fitter struct {
	components Components
	controller fitting.ControllerConfig
	mode       rendering.Mode
	history    int
	logger     *slog.Logger
}

// NewFitter builds the production components from cfg. Without an API key for
// a hosted provider the generation service is disabled and compression falls
// back to the deterministic paths.
func NewFitter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Fitter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var client llm.Client
	var generator rewriting.Generator
	if cfg.APIKey != "" || cfg.Provider == string(llm.ProviderOllama) {
		llmCfg, err := cfg.LLM()
		if err != nil {
			return nil, err
		}
		base, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create generation client: %w", err)
		}
		client = llm.NewRateLimitedClient(base, cfg.RequestsPerSecond, max(1, cfg.RewriteConcurrency))
		generator = rewriting.NewLLMGenerator(client)
	} else {
		logger.Warn("no API key configured; rewriting and generator ranking are disabled", "provider", cfg.Provider)
	}

	compiler := typeset.NewCompiler(cfg.Engine, cfg.DockerImage, cfg.CompileTimeout.Std())
	return NewFitterWith(Components{
		Transformer: transform.New(generator,
			transform.WithTimeout(cfg.GenerationTimeout.Std()),
			transform.WithConcurrency(cfg.RewriteConcurrency),
			transform.WithLogger(logger),
		),
		Measurer: typeset.NewLaTeXMeasurer(compiler, logger),
		Scorer:   scoring.NewHeuristicScorer(logger),
		Client:   client,
	}, cfg, logger)
}

// NewFitterWith wraps caller-provided components. The controller settings are
// validated here so a bad configuration fails before any fit starts.
func NewFitterWith(c Components, cfg *config.Config, logger *slog.Logger) (*Fitter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	controller := cfg.Controller()
	if err := controller.Validate(); err != nil {
		return nil, err
	}
	mode := rendering.Mode(cfg.TemplateMode)
	if !mode.Valid() {
		mode = rendering.ModeStandard
	}
	return &Fitter{
		components: c,
		controller: controller,
		mode:       mode,
		history:    cfg.HistorySize,
		logger:     logger,
	}, nil
}

// Client returns the generation client, or nil when generation is disabled.
func (f *Fitter) Client() llm.Client {
	return f.components.Client
}

// Transformer returns the content transformer.
func (f *Fitter) Transformer() fitting.Transformer {
	return f.components.Transformer
}

// Measurer returns the render-and-measure component.
func (f *Fitter) Measurer() fitting.Measurer {
	return f.components.Measurer
}

// Scorer returns the candidate scorer.
func (f *Fitter) Scorer() scoring.Scorer {
	return f.components.Scorer
}

// Fit runs one fitting loop. observer may be nil.
func (f *Fitter) Fit(ctx context.Context, model types.ContentModel, role string, observer fitting.Observer) (*fitting.Result, error) {
	if role == "" {
		role = scoring.DefaultRole
	}
	controller, err := fitting.NewController(f.controller)
	if err != nil {
		return nil, err
	}
	loop := fitting.NewLoop(f.components.Transformer, f.components.Measurer, f.components.Scorer, controller,
		fitting.WithLogger(f.logger),
		fitting.WithObserver(observer),
		fitting.WithHistorySize(f.history),
		fitting.WithRenderMode(f.mode),
	)
	return loop.Run(ctx, model, role)
}

// Close releases the generation client.
func (f *Fitter) Close() error {
	if f.components.Client == nil {
		return nil
	}
	return f.components.Client.Close()
}
