package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired enrichment cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.Store.DeleteExpiredCacheEntries(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("cache purge complete", zap.Int("deleted", n))
		fmt.Printf("deleted %d expired cache entries\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(purgeCmd)
}
