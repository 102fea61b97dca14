package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"lexai-backend/app"
	"lexai-backend/service"
	"lexai-backend/storage"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	var in, out string

	cmd := &cobra.Command{
		Use:          "clean-dataset",
		Short:        "Strip court headers that precede the division line from every record",
		SilenceUsage: true,
	}
	flags := app.BindFlags(cmd)
	cmd.Flags().StringVar(&in, "in", "", "dataset key to read (defaults to ingestion.dataset_path)")
	cmd.Flags().StringVar(&out, "out", "", "dataset key to write (defaults to <in>_clean.jsonl)")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := flags.Load(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if in == "" {
			in = cfg.Ingestion.DatasetPath
		}
		if out == "" {
			out = strings.TrimSuffix(in, ".jsonl") + "_clean.jsonl"
		}
		if in == out {
			return fmt.Errorf("input and output must differ: %s", in)
		}

		store, err := storage.NewStorageFromConfig(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		src, err := store.Open(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", in, err)
		}
		defer src.Close()

		pr, pw := io.Pipe()
		var stats service.CleanStats

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			stats, err = service.CleanDataset(src, pw)
			pw.CloseWithError(err)
			return err
		})
		g.Go(func() error {
			err := store.Put(gctx, out, pr)
			pr.CloseWithError(err)
			return err
		})
		if err := g.Wait(); err != nil {
			log.Error("Failed to clean dataset", "in", in, "out", out, "error", err)
			return err
		}

		log.Info("✅ Dataset cleaned",
			"in", in,
			"out", out,
			"records", stats.Records,
			"trimmed", stats.Trimmed,
			"invalid", stats.Invalid,
		)
		return nil
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
