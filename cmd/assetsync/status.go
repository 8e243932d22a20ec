package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	assetsync "github.com/jdziat/simple-asset-sync"
	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/storage"
)

type statusReport struct {
	Settings *core.Settings  `json:"settings"`
	Cursor   *core.Cursor    `json:"cursor"`
	Runs     []*core.SyncRun `json:"runs"`
}

func newStatusCmd(root *rootOptions) *cobra.Command {
	var (
		limit  int
		format string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show settings, cursor and recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := assetsync.OpenStorage(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeDB(store)

			var report statusReport
			if report.Settings, err = store.Settings(ctx); err != nil {
				return err
			}
			var cursors core.CursorStore = store
			if cfg.Sync.CursorFile != "" {
				cursors = storageFileCursor(cfg.Sync.CursorFile)
			}
			if report.Cursor, err = cursors.GetCursor(ctx); err != nil {
				return err
			}
			if report.Runs, err = store.ListRuns(ctx, storage.RunFilter{Limit: limit}); err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			return printStatus(cmd.OutOrStdout(), &report)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	return cmd
}

func printStatus(w io.Writer, r *statusReport) error {
	fmt.Fprintf(w, "Tenant:    %s\n", r.Settings.TenantID)
	fmt.Fprintf(w, "Languages: %v\n", r.Settings.ImportLanguages)
	if r.Cursor != nil {
		fmt.Fprintf(w, "Cursor:    %s (more: %t)\n", r.Cursor.Token, r.Cursor.HasMore)
	} else {
		fmt.Fprintln(w, "Cursor:    none")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tORIGIN\tSTATUS\tPAGES\tDELIVERED\tERROR")
	for _, run := range r.Runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.Origin,
			run.Status,
			run.Pages,
			run.Delivered(),
			run.ErrorKind)
	}
	return tw.Flush()
}
