package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/onepage/internal/config"
	"github.com/jonathan/onepage/internal/db"
	"github.com/jonathan/onepage/internal/pipeline"
	"github.com/jonathan/onepage/internal/server"
	"github.com/jonathan/onepage/internal/server/ratelimit"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for fitting resumes. Runs are stored when a
database URL is configured; migrations are applied on startup.`,
	RunE: runServe,
}

var (
	serveAddr    string
	serveMaxFits int
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (default \":8080\")")
	serveCmd.Flags().IntVar(&serveMaxFits, "max-concurrent-fits", 0, "Fits allowed to run at once")
	addFitterFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(func(c *config.Config) {
		applyFitterFlags(cmd.Flags(), c)
		if cmd.Flags().Changed("addr") {
			c.ListenAddr = serveAddr
		}
		if cmd.Flags().Changed("max-concurrent-fits") {
			c.MaxConcurrentFits = serveMaxFits
		}
	})
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fitter, err := pipeline.NewFitter(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create fitter: %w", err)
	}
	defer fitter.Close() //nolint:errcheck

	// RunStore stays a nil interface unless the database is reachable
	var store server.RunStore
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultServerOptions())
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close() //nolint:errcheck
		if err := database.Migrate(ctx); err != nil {
			return err
		}
		store = database
	} else {
		logger.Warn("DATABASE_URL not set; runs will not be stored")
	}

	srv := server.New(fitter, store, server.Config{
		Addr:              cfg.ListenAddr,
		MaxConcurrentFits: cfg.MaxConcurrentFits,
		RateLimit:         ratelimit.LoadConfig(),
		Logger:            logger,
	})
	return srv.ListenAndServe(ctx)
}
