package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdziat/simple-asset-sync/pkg/config"
)

type rootOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "assetsync",
		Short:        "Sync licensed assets from a catalog into a target store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file (YAML)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newSyncCmd(opts),
		newMigrateCmd(opts),
		newStatusCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration and installs the process logger.
func (o *rootOptions) load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := cfg.Log.Logger(os.Stderr, o.debug)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
