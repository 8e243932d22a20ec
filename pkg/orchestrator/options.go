package orchestrator

import (
	"log/slog"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/security"
)

// DefaultLookupConcurrency bounds concurrent FindExisting calls per page.
const DefaultLookupConcurrency = 4

// Recorder receives pipeline metrics.
type Recorder interface {
	RunFinished(origin core.Origin, status core.RunStatus, d time.Duration)
	AssetsDelivered(class core.Classification, n int)
	CursorCommitted()
}

type nopRecorder struct{}

func (nopRecorder) RunFinished(core.Origin, core.RunStatus, time.Duration) {}
func (nopRecorder) AssetsDelivered(core.Classification, int) {}
func (nopRecorder) CursorCommitted() {}

// Option configures an Orchestrator.
type Option interface {
	applyOrchestrator(*Orchestrator)
}

type optionFunc func(*Orchestrator)

func (f optionFunc) applyOrchestrator(o *Orchestrator) { f(o) }

// WithLogger sets the orchestrator logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return optionFunc(func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	})
}

// WithRunRecorder persists a SyncRun record for every run.
func WithRunRecorder(r core.RunRecorder) Option {
	return optionFunc(func(o *Orchestrator) {
		o.runs = r
	})
}

// WithLookupConcurrency sets how many existence lookups run at once.
func WithLookupConcurrency(n int) Option {
	return optionFunc(func(o *Orchestrator) {
		o.lookupConcurrency = security.ClampConcurrency(n)
	})
}

// WithTempDir sets the parent of the per-run working directories.
// The default is os.TempDir.
func WithTempDir(dir string) Option {
	return optionFunc(func(o *Orchestrator) {
		o.tempRoot = dir
	})
}

// WithKeyCache shares cache with the caller, mostly for inspection.
func WithKeyCache(cache *KeyCache) Option {
	return optionFunc(func(o *Orchestrator) {
		if cache != nil {
			o.cache = cache
		}
	})
}

// WithEventBuffer sets the buffer size of subscriber channels.
func WithEventBuffer(n int) Option {
	return optionFunc(func(o *Orchestrator) {
		if n > 0 {
			o.eventBuf = n
		}
	})
}
