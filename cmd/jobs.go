package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var jobsDays int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recently ingested jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		since := time.Now().UTC().AddDate(0, 0, -jobsDays)
		jobs, err := e.Store.ListJobsSince(ctx, since)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "JOB ID\tCOMPANY\tTITLE\tDIVISION\tPOSTED")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				j.JobID, j.CompanyName, j.Title, j.Division, j.PostedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

func init() {
	jobsCmd.Flags().IntVar(&jobsDays, "days", 14, "lookback window in days")
	rootCmd.AddCommand(jobsCmd)
}
