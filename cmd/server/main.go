package main

import (
	"os"

	"lexai-backend/app"
	"lexai-backend/handlers"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Serve search, run triggers and metrics over HTTP",
		SilenceUsage: true,
	}
	flags := app.BindFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return run(cmd, flags)
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, flags *app.Flags) error {
	cfg, log, err := flags.Load(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := app.New(ctx, cfg, log, app.Options{Gemini: true})
	if err != nil {
		log.Error("Failed to initialize", "error", err)
		return err
	}
	defer a.Close()

	runService := a.RunService()
	if n, err := runService.RecoverStaleRuns(ctx); err != nil {
		log.Warn("Failed to recover stale runs", "error", err)
	} else if n > 0 {
		log.Info("Marked interrupted runs as failed", "count", n)
	}

	r := handlers.NewRouter(handlers.RouterConfig{
		Search:   handlers.NewSearchHandler(a.SearchService()),
		Runs:     handlers.NewRunHandler(runService),
		Datasets: handlers.NewDatasetHandler(a.Storage, cfg.Ingestion.DatasetPath),
		Metrics:  a.Metrics,
		Logger:   log,
	})

	log.Info("Server starting", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Error("Failed to start server", "error", err)
		return err
	}
	return nil
}
