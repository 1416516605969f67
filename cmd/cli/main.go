// Command cli runs one query through the pipeline from the terminal,
// bypassing the HTTP surface entirely — useful for local debugging and
// for scheduled jobs that want a direct process exit code.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"marketintel/internal/bootstrap"
	"marketintel/internal/config"
)

func main() {
	var limit int
	var stream bool

	root := &cobra.Command{
		Use:   "marketintel-cli [query]",
		Short: "Run a market-intelligence query against the pipeline and print the resulting report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			log := bootstrap.NewLogger(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.IntelligencePipelineTimeoutSeconds)*time.Second)
			defer cancel()

			app, err := bootstrap.Build(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("build application: %w", err)
			}
			defer app.Close()

			queryText := args[0]
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			if stream {
				for ev := range app.Orchestrator.RunStream(ctx, queryText, limit) {
					if err := enc.Encode(ev); err != nil {
						return err
					}
				}
				return nil
			}

			report, err := app.Orchestrator.Run(ctx, queryText, limit)
			if err != nil {
				return fmt.Errorf("run query: %w", err)
			}
			return enc.Encode(report)
		},
	}

	root.Flags().IntVar(&limit, "limit", 20, "maximum evidence items to retrieve (1-50)")
	root.Flags().BoolVar(&stream, "stream", false, "print progressive stage events instead of waiting for the final report")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
