package main

import (
	"fmt"

	"github.com/spf13/cobra"

	assetsync "github.com/jdziat/simple-asset-sync"
	"github.com/jdziat/simple-asset-sync/pkg/storage"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := assetsync.OpenStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB(store)

			if err := target.NewGormTarget(store.DB(), target.WithLogger(logger)).Migrate(ctx); err != nil {
				return fmt.Errorf("migrate target: %w", err)
			}
			if settings := cfg.Sync.Settings(); settings != nil {
				if err := store.SaveSettings(ctx, settings); err != nil {
					return fmt.Errorf("seed settings: %w", err)
				}
			}

			logger.Info("database migrated", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

func closeDB(store *storage.GormStorage) {
	if sqlDB, err := store.DB().DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func storageFileCursor(path string) *storage.FileCursorStore {
	return storage.NewFileCursorStore(path)
}
