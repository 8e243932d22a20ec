package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	assetsync "github.com/jdziat/simple-asset-sync"
	"github.com/jdziat/simple-asset-sync/pkg/core"
)

func newSyncCmd(root *rootOptions) *cobra.Command {
	var (
		push      bool
		fromStart bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync and exit",
		Long: `Run one sync through the job queue and exit. By default the run imports
generic metadata like a scheduled run; --push skips it like a push-triggered run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			app, err := assetsync.NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if fromStart {
				if err := resetCursor(ctx, app); err != nil {
					return err
				}
				logger.Info("cursor reset, syncing from the start of the feed")
			}

			origin := core.OriginScheduled
			if push {
				origin = core.OriginPush
			}
			app.Engine.SyncNow(origin)
			if err := app.Engine.Wait(ctx); err != nil {
				return err
			}

			run := app.Engine.Orchestrator().LastRun()
			if run == nil {
				return errors.New("sync did not run")
			}
			out, err := json.MarshalIndent(run, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if run.Status != core.RunStatusCompleted {
				return fmt.Errorf("sync %s: %s", run.Status, run.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&push, "push", false, "Skip generic metadata like a push-triggered run")
	cmd.Flags().BoolVar(&fromStart, "from-start", false, "Reset the cursor before syncing")
	return cmd
}

func resetCursor(ctx context.Context, app *assetsync.App) error {
	if path := app.Config.Sync.CursorFile; path != "" {
		return storageFileCursor(path).SetCursor(ctx, core.Cursor{})
	}
	return app.Storage.ResetCursor(ctx)
}
