package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"go.uber.org/zap"
)

var refreshAsOf string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh company profiles for recent jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		asOf := time.Now().UTC()
		if refreshAsOf != "" {
			asOf, err = time.Parse("2006-01-02", refreshAsOf)
			if err != nil {
				return eris.Wrapf(err, "parse --as-of %q", refreshAsOf)
			}
		}

		count, err := e.Orchestrator.RefreshCompanyProfiles(ctx, asOf)
		if err != nil {
			return err
		}

		zap.L().Info("refresh finished", zap.Int("persisted", count))
		fmt.Printf("refreshed %d company profiles\n", count)
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshAsOf, "as-of", "", "refresh as of date (YYYY-MM-DD, default now)")
	rootCmd.AddCommand(refreshCmd)
}
