package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/runctx"
	"github.com/jdziat/simple-asset-sync/pkg/security"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

// Stage names reported when a hook aborts a run.
const (
	StageBeforeSync       = "before_sync"
	StageBeforeAssetsSync = "before_assets_sync"
)

// Catalog is the remote source of metadata and assets.
type Catalog interface {
	FetchMetadata(ctx context.Context) (*core.GenericMetadata, error)
	FetchAssetPage(ctx context.Context, token string) (*core.AssetPage, error)
}

// Orchestrator runs the sync pipeline against one target.
type Orchestrator struct {
	catalog  Catalog
	target   target.SyncTarget
	settings core.SettingsProvider
	cursors  core.CursorStore
	runs     core.RunRecorder
	cache    *KeyCache

	logger            *slog.Logger
	recorder          Recorder
	lookupConcurrency int
	tempRoot          string

	lastMu  sync.RWMutex
	lastRun *core.SyncRun

	// Event stream
	mu        sync.RWMutex
	eventSubs []chan core.Event
	eventBuf  int
}

// New creates an Orchestrator.
func New(catalog Catalog, tgt target.SyncTarget, settings core.SettingsProvider, cursors core.CursorStore, opts ...Option) (*Orchestrator, error) {
	if catalog == nil {
		return nil, errors.New("assetsync: catalog is required")
	}
	if tgt == nil {
		return nil, errors.New("assetsync: sync target is required")
	}
	if settings == nil {
		return nil, errors.New("assetsync: settings provider is required")
	}
	if cursors == nil {
		return nil, errors.New("assetsync: cursor store is required")
	}

	o := &Orchestrator{
		catalog:           catalog,
		target:            tgt,
		settings:          settings,
		cursors:           cursors,
		cache:             NewKeyCache(),
		logger:            slog.Default(),
		recorder:          nopRecorder{},
		lookupConcurrency: DefaultLookupConcurrency,
		eventBuf:          100,
	}
	for _, opt := range opts {
		opt.applyOrchestrator(o)
	}
	return o, nil
}

// Job returns a queue job that runs the pipeline for origin.
func (o *Orchestrator) Job(origin core.Origin) *core.Job {
	return core.NewJob(origin, func(ctx context.Context) {
		o.Run(ctx, origin.FullMetadata())
	})
}

// Cache returns the metadata key cache.
func (o *Orchestrator) Cache() *KeyCache {
	return o.cache
}

// LastRun returns a copy of the most recent run record, or nil.
func (o *Orchestrator) LastRun() *core.SyncRun {
	o.lastMu.RLock()
	defer o.lastMu.RUnlock()
	if o.lastRun == nil {
		return nil
	}
	run := *o.lastRun
	return &run
}

// errAborted ends a run without failure when a hook returned false.
type errAborted struct {
	stage string
}

func (e *errAborted) Error() string {
	return "run aborted at " + e.stage
}

// Run executes the pipeline once. It never panics or returns an error;
// failures are handed to the target's error handlers.
func (o *Orchestrator) Run(ctx context.Context, fullMetadata bool) {
	origin := core.OriginPush
	if fullMetadata {
		origin = core.OriginScheduled
	}
	if job := runctx.JobFromContext(ctx); job != nil {
		origin = job.Origin
	}

	start := time.Now()
	record := &core.SyncRun{
		ID:           uuid.New().String(),
		JobID:        runctx.JobIDFromContext(ctx),
		Origin:       origin.String(),
		FullMetadata: fullMetadata,
		Status:       core.RunStatusRunning,
		StartedAt:    start,
	}
	ctx = runctx.WithRun(ctx, &runctx.Run{
		ID:           record.ID,
		Origin:       origin,
		FullMetadata: fullMetadata,
		StartedAt:    start,
	})
	logger := runctx.Logger(ctx, o.logger)

	logger.Info("sync run started", "full_metadata", fullMetadata)
	o.saveRun(ctx, logger, record)
	o.Emit(&core.RunStarted{RunID: record.ID, Origin: origin, FullMetadata: fullMetadata, Timestamp: start})

	err := o.runGuarded(ctx, logger, record, fullMetadata)

	var aborted *errAborted
	switch {
	case err == nil:
		record.Status = core.RunStatusCompleted
	case errors.As(err, &aborted):
		record.Status = core.RunStatusAborted
		record.AbortedAt = aborted.stage
		logger.Info("sync run aborted by target", "stage", aborted.stage)
		o.Emit(&core.RunAborted{RunID: record.ID, Stage: aborted.stage, Timestamp: time.Now()})
	default:
		record.Status = core.RunStatusFailed
		o.handleFailure(ctx, logger, record, err)
	}

	completed := time.Now()
	record.CompletedAt = &completed
	d := completed.Sub(start)

	o.saveRun(ctx, logger, record)
	o.lastMu.Lock()
	o.lastRun = record
	o.lastMu.Unlock()
	o.recorder.RunFinished(origin, record.Status, d)

	logger.Info("sync run finished",
		"status", string(record.Status),
		"pages", record.Pages,
		"assets", record.Assets,
		"delivered", record.Delivered(),
		"duration", d)
	if record.Status == core.RunStatusCompleted {
		o.Emit(&core.RunCompleted{RunID: record.ID, Run: *record, Duration: d, Timestamp: completed})
	}
}

// runGuarded runs the stages and releases per-run resources on every
// exit path, including a panicking target.
func (o *Orchestrator) runGuarded(ctx context.Context, logger *slog.Logger, record *core.SyncRun, fullMetadata bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sync run panicked", "panic", r, "stack", string(debug.Stack()))
			err = core.NewPipelineError(core.KindGeneric, fmt.Errorf("panic: %v", r))
		}
		o.cache.Clear()
		o.target.ClearMetadataCaches(ctx)
	}()

	return o.run(ctx, logger, record, fullMetadata)
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, record *core.SyncRun, fullMetadata bool) error {
	settings, err := o.loadSettings(ctx)
	if err != nil {
		return err
	}

	caps := o.target.Capabilities()
	if len(settings.ImportLanguages) > 1 && !caps.Has(target.MultiLanguage) {
		return core.NewPipelineError(core.KindCapability,
			fmt.Errorf("%w: %s for %d import languages", core.ErrCapabilityMissing, "multi_language", len(settings.ImportLanguages)))
	}

	workDir, err := os.MkdirTemp(o.tempRoot, "assetsync-run-*")
	if err != nil {
		return fmt.Errorf("create working directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logger.Warn("failed to remove working directory", "dir", workDir, "error", rmErr)
		}
	}()

	ok, err := o.target.BeforeSync(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &errAborted{stage: StageBeforeSync}
	}

	imported := false
	if fullMetadata {
		imported, err = o.syncMetadata(ctx, logger, record)
		if err != nil {
			return err
		}
	}

	ok, err = o.target.BeforeAssetsSync(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return &errAborted{stage: StageBeforeAssetsSync}
	}

	if err := o.syncAssets(ctx, logger, record, workDir, caps, imported); err != nil {
		return err
	}

	if err := o.target.AfterAssetsSync(ctx); err != nil {
		return err
	}

	if err := o.target.AfterSync(ctx); err != nil {
		logger.Warn("after-sync hook failed", "error", err)
	}
	return nil
}

func (o *Orchestrator) loadSettings(ctx context.Context) (*core.Settings, error) {
	settings, err := o.settings.Settings(ctx)
	if err != nil {
		return nil, core.NewConfigurationError("settings", err)
	}
	if err := security.ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// handleFailure records err and routes it to the matching target handler.
func (o *Orchestrator) handleFailure(ctx context.Context, logger *slog.Logger, record *core.SyncRun, err error) {
	record.Error = security.SanitizeErrorMessage(err.Error())

	pipeErr, authErr := core.AsPipelineError(err)
	if authErr != nil {
		record.ErrorKind = "authentication"
		logger.Error("sync run failed", "kind", record.ErrorKind, "error", err)
		o.target.HandleAuthenticationError(ctx, authErr)
	} else {
		record.ErrorKind = string(pipeErr.Kind)
		logger.Error("sync run failed", "kind", record.ErrorKind, "error", err)
		o.target.HandlePipelineError(ctx, pipeErr)
	}

	o.Emit(&core.RunFailed{RunID: record.ID, Error: err, Timestamp: time.Now()})
}

func (o *Orchestrator) saveRun(ctx context.Context, logger *slog.Logger, record *core.SyncRun) {
	if o.runs == nil {
		return
	}
	run := *record
	if err := o.runs.SaveRun(context.WithoutCancel(ctx), &run); err != nil {
		logger.Warn("failed to record sync run", "error", err)
	}
}

// Events returns a channel for receiving pipeline events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (o *Orchestrator) Events() <-chan core.Event {
	ch := make(chan core.Event, o.eventBuf)
	o.mu.Lock()
	o.eventSubs = append(o.eventSubs, ch)
	o.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
func (o *Orchestrator) Unsubscribe(ch <-chan core.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, sub := range o.eventSubs {
		if sub == ch {
			o.eventSubs = append(o.eventSubs[:i], o.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit emits an event to all subscribers.
func (o *Orchestrator) Emit(e core.Event) {
	o.mu.RLock()
	subs := make([]chan core.Event, len(o.eventSubs))
	copy(subs, o.eventSubs)
	o.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full
		}
	}
}
