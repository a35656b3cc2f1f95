package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the search index with the bucket once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.svc.Sync(cmd.Context(), force)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "added %d, updated %d, removed %d, skipped %d in %s\n",
				report.Added, report.Updated, report.Removed, report.Skipped,
				report.Duration.Round(time.Millisecond))
			for _, f := range report.Failed {
				fmt.Fprintf(out, "failed %s: %s\n", f.Key, f.Message)
			}
			if report.Partial() {
				return fmt.Errorf("%d documents failed", len(report.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reindex every document regardless of change tokens")
	return cmd
}
