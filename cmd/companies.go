package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/talent-cli/internal/model"
)

var companiesDays int

var companiesCmd = &cobra.Command{
	Use:   "companies [name]",
	Short: "List enriched company profiles, or show one by name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if len(args) == 1 {
			profile, err := e.Store.GetCompany(ctx, model.CompanyID(args[0]))
			if err != nil {
				return err
			}
			if profile == nil {
				return fmt.Errorf("no profile for %q", args[0])
			}
			fmt.Printf("%s (%s)\n", profile.DisplayName, profile.CompanyID)
			if profile.Domain != "" {
				fmt.Printf("  domain: %s\n", profile.Domain)
			}
			for _, item := range profile.Hierarchy.Items {
				fmt.Printf("  %s, %s\n", item.Name, item.Title)
			}
			return nil
		}

		since := time.Now().UTC().AddDate(0, 0, -companiesDays)
		profiles, err := e.Store.ListCompaniesUpdatedSince(ctx, since)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPANY ID\tNAME\tDOMAIN\tPEOPLE\tUPDATED")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				p.CompanyID, p.DisplayName, p.Domain, len(p.Hierarchy.Items),
				p.UpdatedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

func init() {
	companiesCmd.Flags().IntVar(&companiesDays, "days", 30, "lookback window in days")
	rootCmd.AddCommand(companiesCmd)
}
