package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lexai-backend/app"
	"lexai-backend/service"

	"github.com/spf13/cobra"
)

func main() {
	var limit int

	cmd := &cobra.Command{
		Use:          "build-embeddings",
		Short:        "Embed every stored chunk that has no embedding yet",
		SilenceUsage: true,
	}
	flags := app.BindFlags(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "embed at most this many chunks (0 means all)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
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

		svc := service.NewEmbeddingService(
			service.EmbeddingWithBacklog(a.Chunks),
			service.EmbeddingWithGateway(a.Gateway()),
			service.EmbeddingWithTokenCounter(a.TokenCounter()),
			service.EmbeddingWithWorkers(cfg.Embedding.Workers),
			service.EmbeddingWithLimit(limit),
			service.EmbeddingWithMetrics(a.Metrics),
			service.EmbeddingWithLogger(log),
		)

		stats, err := svc.Backfill(ctx, nil)
		if err != nil {
			log.Error("Embedding sweep stopped", "error", err)
			return err
		}

		remaining, err := a.Chunks.CountMissingEmbeddings(ctx)
		if err != nil {
			log.Warn("Failed to count remaining chunks", "error", err)
		}
		log.Info("✅ Embedding sweep done",
			"updated", stats.EmbeddingsUpdated,
			"failed", stats.EmbeddingsFailed,
			"remaining", remaining,
		)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
