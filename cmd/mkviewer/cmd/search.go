package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mkviewer/mkviewer/internal/search"
)

func newSearchCmd() *cobra.Command {
	var modeFlag string
	var jsonOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := search.ParseMode(modeFlag)
			if !ok {
				return fmt.Errorf("unknown mode %q (want content or title)", modeFlag)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if limit > 0 {
				cfg.Search.MaxResults = limit
			}

			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.svc.Search(cmd.Context(), args[0], mode)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for i, r := range results {
				fmt.Fprintf(out, "%2d. %s (%.3f)\n", i+1, r.Key, r.Score)
				if r.Snippet != "" {
					fmt.Fprintf(out, "    %s\n", r.Snippet)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "content", "Search mode: content or title")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum results (overrides config)")
	return cmd
}
