package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkviewer/mkviewer/internal/server"
)

func newServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Serve the document tree, rendered documents, and search over HTTP.

The background sync loop keeps the index reconciled with the bucket on
the configured interval. Ctrl-C shuts down gracefully.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s listening on %s:%d\n",
				cfg.SiteTitle, cfg.Server.Host, cfg.Server.Port)

			srv := server.New(server.Config{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				SiteTitle:    cfg.SiteTitle,
				SyncInterval: cfg.Server.SyncInterval,
			}, a.svc)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Bind host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "Bind port (overrides config)")
	return cmd
}
