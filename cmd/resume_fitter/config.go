package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/jonathan/onepage/internal/config"
	"github.com/jonathan/onepage/internal/db"
	"github.com/jonathan/onepage/internal/pipeline"
)

var (
	configPath string
	verbose    bool
)

// Flags shared by the commands that build a fitter
var (
	flagRole          string
	flagAPIKey        string
	flagProvider      string
	flagModel         string
	flagDatabaseURL   string
	flagTemplateMode  string
	flagEngine        string
	flagMaxIterations int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

// addFitterFlags registers the flags that override fitter configuration.
func addFitterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&flagRole, "role", "r", "", "Target role used for scoring and rewriting (default \"Software Engineer\")")
	fs.StringVar(&flagAPIKey, "api-key", "", "Generation service API key (defaults to the provider's env var)")
	fs.StringVar(&flagProvider, "provider", "", "Generation service: gemini, openai or ollama")
	fs.StringVar(&flagModel, "model", "", "Model name for every tier")
	fs.StringVar(&flagDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	fs.StringVar(&flagTemplateMode, "mode", "", "Template mode: standard or fallback")
	fs.StringVar(&flagEngine, "engine", "", "LaTeX engine: auto, pdflatex or docker")
	fs.IntVar(&flagMaxIterations, "max-iterations", 0, "Iteration budget of the fitting loop")
}

// applyFitterFlags copies explicitly set flags over cfg.
func applyFitterFlags(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("role") {
		cfg.Role = flagRole
	}
	if fs.Changed("api-key") {
		cfg.APIKey = flagAPIKey
	}
	if fs.Changed("provider") {
		cfg.Provider = flagProvider
	}
	if fs.Changed("model") {
		cfg.Model = flagModel
	}
	if fs.Changed("db-url") {
		cfg.DatabaseURL = flagDatabaseURL
	}
	if fs.Changed("mode") {
		cfg.TemplateMode = flagTemplateMode
	}
	if fs.Changed("engine") {
		cfg.Engine = flagEngine
	}
	if fs.Changed("max-iterations") {
		cfg.MaxIterations = flagMaxIterations
	}
}

// loadConfig reads the config file, lets override apply flags, fills
// defaults and the environment, then validates.
func loadConfig(override func(*config.Config)) (*config.Config, error) {
	var cfg config.Config
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if override != nil {
		override(&cfg)
	}
	if verbose {
		cfg.Verbose = true
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// newLogger writes text logs to w; verbose lowers the level to Debug.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore connects to the database when a URL is configured. A failed
// connection is logged and the caller continues without persistence.
func openStore(ctx context.Context, cfg *config.Config, opts db.Options, logger *slog.Logger) (*db.DB, pipeline.Store) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		logger.Warn("database unavailable; runs will not be stored", "error", err)
		return nil, nil
	}
	return database, database
}
