package main

import (
	"fmt"
	"os"
	"strings"

	"lexai-backend/app"
	"lexai-backend/service"

	"github.com/spf13/cobra"
)

func main() {
	var k int

	cmd := &cobra.Command{
		Use:          "search <query>",
		Short:        "Print the stored chunks nearest to a query",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
	}
	flags := app.BindFlags(cmd)
	cmd.Flags().IntVar(&k, "k", 0, "number of results (defaults to search.default_k)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
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

		svc := a.SearchService()
		if !cmd.Flags().Changed("k") {
			k = svc.DefaultK()
		}

		resp, err := svc.Search(ctx, service.SearchRequest{Query: strings.Join(args, " "), K: k})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(resp.Results) == 0 {
			fmt.Fprintln(out, "No embedded chunks found.")
			return nil
		}
		for i, r := range resp.Results {
			fmt.Fprintf(out, "%d. %s | %s #%d | similarity %.4f\n", i+1, r.CaseNo, r.Section, r.ChunkIndex, r.Similarity)
			fmt.Fprintf(out, "   %s\n", strings.ReplaceAll(r.Preview, "\n", " "))
		}
		return nil
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
