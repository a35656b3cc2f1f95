package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// clear-cache talks to a running server; the render cache is in-process
// memory, so there is nothing to clear from a fresh CLI process.
func newClearCacheCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "clear-cache",
		Short: "Clear the render cache of a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				host := cfg.Server.Host
				if host == "0.0.0.0" || host == "" {
					host = "127.0.0.1"
				}
				addr = fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, addr+"/api/cache/clear", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("server not reachable at %s: %w", addr, err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %s", resp.Status)
			}

			var body struct {
				Cleared int `json:"cleared"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d cached renders\n", body.Cleared)
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server base URL (default from config)")
	return cmd
}
