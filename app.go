package assetsync

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jdziat/simple-asset-sync/pkg/api"
	"github.com/jdziat/simple-asset-sync/pkg/auth"
	"github.com/jdziat/simple-asset-sync/pkg/config"
	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/metrics"
	"github.com/jdziat/simple-asset-sync/pkg/orchestrator"
	"github.com/jdziat/simple-asset-sync/pkg/queue"
	"github.com/jdziat/simple-asset-sync/pkg/schedule"
	"github.com/jdziat/simple-asset-sync/pkg/server"
	"github.com/jdziat/simple-asset-sync/pkg/storage"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

// App is a connector assembled from configuration: database storage, the
// catalog client, the reference database target and the engine.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Storage *storage.GormStorage
	Target  *target.GormTarget
	Client  *api.Client
	Metrics *metrics.Metrics
	Engine  *Engine
}

// OpenStorage opens and migrates the configured database.
func OpenStorage(ctx context.Context, cfg *config.Config) (*storage.GormStorage, error) {
	store, err := storage.OpenStorage(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.PoolOptions()...)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = closeStorage(store)
		return nil, fmt.Errorf("migrate storage: %w", err)
	}
	return store, nil
}

// NewApp wires a connector from cfg. The returned App owns the database
// connection; call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app, err := wire(ctx, cfg, logger, store)
	if err != nil {
		_ = closeStorage(store)
		return nil, err
	}
	return app, nil
}

func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger, store *storage.GormStorage) (*App, error) {
	if settings := cfg.Sync.Settings(); settings != nil {
		if err := store.SaveSettings(ctx, settings); err != nil {
			return nil, fmt.Errorf("seed settings: %w", err)
		}
	}

	refresher, err := newRefresher(ctx, cfg, logger, store)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	client, err := api.NewClient(cfg.Client(), refresher, store,
		api.WithLogger(logger),
		api.WithRecorder(m))
	if err != nil {
		return nil, err
	}

	caps, err := target.ParseCapabilities(cfg.Target.Capabilities)
	if err != nil {
		return nil, core.NewConfigurationError("target.capabilities", err)
	}
	targetOpts := []target.GormOption{target.WithCapabilities(caps), target.WithLogger(logger)}
	if cfg.Target.Downloads {
		targetOpts = append(targetOpts, target.WithDownloads(&http.Client{Timeout: cfg.Client().Timeout}))
	}
	tgt := target.NewGormTarget(store.DB(), targetOpts...)
	if err := tgt.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate target: %w", err)
	}

	var cursors core.CursorStore = store
	if cfg.Sync.CursorFile != "" {
		cursors = storage.NewFileCursorStore(cfg.Sync.CursorFile)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithRecorder(m),
		orchestrator.WithRunRecorder(store),
		orchestrator.WithTempDir(cfg.Sync.TempDir),
	}
	if cfg.Sync.LookupConcurrency > 0 {
		orchOpts = append(orchOpts, orchestrator.WithLookupConcurrency(cfg.Sync.LookupConcurrency))
	}
	orch, err := orchestrator.New(client, tgt, store, cursors, orchOpts...)
	if err != nil {
		return nil, err
	}

	sched, err := schedule.Parse(cfg.Sync.Schedule)
	if err != nil {
		return nil, core.NewConfigurationError("sync.schedule", err)
	}

	engine, err := NewEngine(orch, store,
		WithEngineLogger(logger),
		WithSchedule(sched),
		WithRunOnStart(cfg.Sync.RunOnStart),
		WithQueueOptions(queue.WithRecorder(m)))
	if err != nil {
		return nil, err
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Storage: store,
		Target:  tgt,
		Client:  client,
		Metrics: m,
		Engine:  engine,
	}, nil
}

func newRefresher(ctx context.Context, cfg *config.Config, logger *slog.Logger, store *storage.GormStorage) (core.AuthRefresher, error) {
	if cfg.Auth.AccessToken != "" {
		return auth.StaticToken(cfg.Auth.AccessToken), nil
	}

	if cfg.Auth.RefreshToken != "" {
		stored, err := store.GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		if stored == nil || stored.RefreshToken == "" {
			if err := store.SetToken(ctx, &core.Token{RefreshToken: cfg.Auth.RefreshToken}); err != nil {
				return nil, fmt.Errorf("seed refresh token: %w", err)
			}
		}
	}

	return auth.NewOAuth2Refresher(cfg.Auth.OAuth2(), store, store, auth.WithLogger(logger))
}

// Handler returns the HTTP surface with metrics and run history mounted.
func (a *App) Handler() http.Handler {
	return a.Engine.Handler(
		server.WithMetrics(a.Metrics.Handler()),
		server.WithRunHistory(a.Storage),
		server.WithPushSecret(a.Config.Server.PushSecret),
	)
}

// PruneRuns removes run records older than the configured retention.
func (a *App) PruneRuns(ctx context.Context) error {
	if a.Config.Sync.RunRetention <= 0 {
		return nil
	}
	n, err := a.Storage.PruneRuns(ctx, a.Config.Sync.RunRetention)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}
	if n > 0 {
		a.Logger.Info("pruned old runs", "count", n)
	}
	return nil
}

// Close stops the engine and closes the database.
func (a *App) Close() error {
	a.Engine.Close()
	return closeStorage(a.Storage)
}

func closeStorage(store *storage.GormStorage) error {
	sqlDB, err := store.DB().DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
