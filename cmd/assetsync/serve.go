package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	assetsync "github.com/jdziat/simple-asset-sync"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler, push webhook and status API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := assetsync.NewApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Warn("failed to close storage", "error", err)
				}
			}()

			if err := app.PruneRuns(ctx); err != nil {
				logger.Warn("failed to prune run history", "error", err)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return app.Engine.Start(gctx)
			})

			if cfg.Server.Enabled {
				srv := &http.Server{
					Addr:              cfg.Server.Address,
					Handler:           app.Handler(),
					ReadHeaderTimeout: readHeaderTimeout,
					IdleTimeout:       idleTimeout,
				}
				g.Go(func() error {
					logger.Info("http server listening", "address", cfg.Server.Address)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
			}

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "Address to listen on (overrides server.address)")
	return cmd
}
