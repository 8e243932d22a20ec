package assetsync

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/orchestrator"
	"github.com/jdziat/simple-asset-sync/pkg/queue"
	"github.com/jdziat/simple-asset-sync/pkg/schedule"
	"github.com/jdziat/simple-asset-sync/pkg/server"
	"github.com/jdziat/simple-asset-sync/pkg/trigger"
)

// EngineOption configures an Engine.
type EngineOption interface {
	applyEngine(*engineConfig)
}

type engineOptionFunc func(*engineConfig)

func (f engineOptionFunc) applyEngine(c *engineConfig) { f(c) }

type engineConfig struct {
	logger     *slog.Logger
	schedule   schedule.Schedule
	runOnStart bool
	queueOpts  []queue.Option
}

// WithEngineLogger sets the logger shared by the queue and triggers.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return engineOptionFunc(func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithSchedule sets the timer schedule (default: every 30 minutes).
func WithSchedule(s schedule.Schedule) EngineOption {
	return engineOptionFunc(func(c *engineConfig) {
		if s != nil {
			c.schedule = s
		}
	})
}

// WithRunOnStart admits a scheduled sync as soon as Start is called.
func WithRunOnStart(enabled bool) EngineOption {
	return engineOptionFunc(func(c *engineConfig) {
		c.runOnStart = enabled
	})
}

// WithQueueOptions passes options to the job queue.
func WithQueueOptions(opts ...queue.Option) EngineOption {
	return engineOptionFunc(func(c *engineConfig) {
		c.queueOpts = append(c.queueOpts, opts...)
	})
}

// Engine wires the job queue to the orchestrator and its two triggers.
type Engine struct {
	orchestrator *orchestrator.Orchestrator
	settings     core.SettingsProvider
	queue        *queue.Queue
	timer        *trigger.TimerSource
	push         *trigger.PushSource
	logger       *slog.Logger
}

// NewEngine creates an engine and starts its queue. settings is consulted
// by the push webhook.
func NewEngine(orch *orchestrator.Orchestrator, settings core.SettingsProvider, opts ...EngineOption) (*Engine, error) {
	if orch == nil {
		return nil, errors.New("assetsync: orchestrator is required")
	}

	cfg := engineConfig{
		logger:   slog.Default(),
		schedule: schedule.Every(schedule.DefaultInterval),
	}
	for _, opt := range opts {
		opt.applyEngine(&cfg)
	}

	q := queue.New(append([]queue.Option{queue.WithLogger(cfg.logger)}, cfg.queueOpts...)...)

	timerOpts := []trigger.TimerOption{trigger.WithTimerLogger(cfg.logger)}
	if cfg.runOnStart {
		timerOpts = append(timerOpts, trigger.RunOnStart())
	}

	e := &Engine{
		orchestrator: orch,
		settings:     settings,
		queue:        q,
		timer:        trigger.NewTimerSource(cfg.schedule, q, orch.Job, timerOpts...),
		push:         trigger.NewPushSource("", cfg.logger),
		logger:       cfg.logger,
	}
	e.push.Bind(q, orch.Job)
	return e, nil
}

// Queue returns the job queue.
func (e *Engine) Queue() *queue.Queue {
	return e.queue
}

// Orchestrator returns the pipeline.
func (e *Engine) Orchestrator() *orchestrator.Orchestrator {
	return e.orchestrator
}

// Push returns the push source feeding the queue.
func (e *Engine) Push() *trigger.PushSource {
	return e.push
}

// SyncNow admits a job for origin and reports whether the queue took it.
func (e *Engine) SyncNow(origin core.Origin) bool {
	return e.queue.Add(origin, e.orchestrator.Job(origin))
}

// Handler returns the HTTP surface for this engine.
func (e *Engine) Handler(opts ...server.Option) http.Handler {
	base := []server.Option{
		server.WithLogger(e.logger),
		server.WithPush(e.push, e.settings),
	}
	return server.New(e.queue, e.orchestrator, append(base, opts...)...)
}

// Start runs the timer until ctx is cancelled, then closes the queue and
// waits for a running job to return. Blocks until then.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("sync engine started")
	err := e.timer.Start(ctx)
	e.queue.Close()
	e.logger.Info("sync engine stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Wait blocks until no job is waiting or running.
func (e *Engine) Wait(ctx context.Context) error {
	return e.queue.Wait(ctx)
}

// Close stops the queue without starting the timer.
func (e *Engine) Close() {
	e.queue.Close()
}
