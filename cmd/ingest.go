package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/talent-cli/internal/ingest"
)

var (
	ingestSeeds   string
	ingestQueries []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch, validate, and store job listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		queries := ingestQueries
		ingestor := e.Ingestor
		if ingestSeeds != "" {
			seeds, err := ingest.LoadSeeds(ingestSeeds)
			if err != nil {
				return err
			}
			queries = append(seeds.Queries, queries...)
			if len(seeds.DivisionRules) > 0 {
				ingestor = ingest.New(e.Search, e.Store, e.Validator, seeds.DivisionRules, cfg.Search)
			}
		}
		if len(queries) == 0 {
			return fmt.Errorf("no queries: pass --query or --seeds")
		}

		stats, err := ingestor.Run(ctx, queries)
		if err != nil {
			return err
		}

		zap.L().Info("ingest finished",
			zap.Int("fetched", stats.Fetched),
			zap.Int("persisted", stats.Persisted))
		fmt.Printf("fetched %d, persisted %d, rejected %d, duplicates %d\n",
			stats.Fetched, stats.Persisted, stats.Rejected, stats.Duplicates)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSeeds, "seeds", "", "YAML seed file with queries and division rules")
	ingestCmd.Flags().StringSliceVar(&ingestQueries, "query", nil, "search query (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}
