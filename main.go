package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lexai-backend/app"

	"github.com/spf13/cobra"
)

func main() {
	var skipEmbeddings bool

	cmd := &cobra.Command{
		Use:          "lexai",
		Short:        "Chunk the decision dataset into Postgres, then embed the new chunks",
		SilenceUsage: true,
	}
	flags := app.BindFlags(cmd)
	cmd.Flags().BoolVar(&skipEmbeddings, "skip-embeddings", false, "stop after chunking and persisting")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := flags.Load(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		a, err := app.New(ctx, cfg, log, app.Options{Gemini: !skipEmbeddings})
		if err != nil {
			log.Error("Failed to initialize", "error", err)
			return err
		}
		defer a.Close()

		log.Info("Step 1: chunking dataset", "dataset", cfg.Ingestion.DatasetPath)
		ingested, err := a.IngestionService().IngestDataset(ctx, nil)
		if err != nil {
			log.Error("Ingestion stopped; rerun to resume from the checkpoint", "error", err)
			return err
		}
		log.Info("✓ Chunking done", "processed", ingested.Processed, "chunks_inserted", ingested.ChunksInserted)

		if skipEmbeddings {
			return nil
		}

		log.Info("Step 2: embedding chunks")
		embedded, err := a.EmbeddingService().Backfill(ctx, nil)
		if err != nil {
			log.Error("Embedding sweep stopped", "error", err)
			return err
		}
		log.Info("✅ Pipeline finished",
			"embeddings_updated", embedded.EmbeddingsUpdated,
			"embeddings_failed", embedded.EmbeddingsFailed,
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
