// Package cmd provides the CLI commands for mkviewer.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mkviewer/mkviewer/internal/config"
	"github.com/mkviewer/mkviewer/internal/logging"
	"github.com/mkviewer/mkviewer/pkg/version"
)

var (
	configPath string
	debugMode  bool

	loggingCleanup func()
)

// NewRootCmd creates the root command for the mkviewer CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkviewer",
		Short: "Browse and search a document knowledge base in object storage",
		Long: `MKViewer serves a tree of markdown and word documents stored in an
object-store bucket, with full-text search over an embedded index.

Run 'mkviewer serve' to start the HTTP API, or 'mkviewer sync' to
reconcile the search index with the bucket once.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("mkviewer version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to mkviewer.yaml")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newTreeCmd())
	cmd.AddCommand(newClearCacheCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if fileCfg, err := loadConfig(); err == nil {
		if fileCfg.Logging.Level != "" {
			cfg.Level = fileCfg.Logging.Level
		}
		if fileCfg.Logging.FilePath != "" {
			cfg.FilePath = fileCfg.Logging.FilePath
		}
	}
	if debugMode {
		cfg.Level = "debug"
	}
	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}
