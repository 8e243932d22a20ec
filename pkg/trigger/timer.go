package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/schedule"
)

// TimerOption configures a TimerSource.
type TimerOption interface {
	applyTimer(*TimerSource)
}

type timerOptionFunc func(*TimerSource)

func (f timerOptionFunc) applyTimer(t *TimerSource) { f(t) }

// WithTimerLogger sets the timer logger.
func WithTimerLogger(l *slog.Logger) TimerOption {
	return timerOptionFunc(func(t *TimerSource) {
		if l != nil {
			t.logger = l
		}
	})
}

// RunOnStart admits a job as soon as Start is called.
func RunOnStart() TimerOption {
	return timerOptionFunc(func(t *TimerSource) {
		t.runOnStart = true
	})
}

// TimerSource admits a scheduled job every time its schedule fires.
type TimerSource struct {
	schedule   schedule.Schedule
	queue      Admitter
	jobs       JobFactory
	logger     *slog.Logger
	runOnStart bool
}

// NewTimerSource creates a timer feeding queue. A nil schedule uses
// schedule.Every(schedule.DefaultInterval).
func NewTimerSource(s schedule.Schedule, queue Admitter, jobs JobFactory, opts ...TimerOption) *TimerSource {
	if s == nil {
		s = schedule.Every(schedule.DefaultInterval)
	}
	t := &TimerSource{
		schedule: s,
		queue:    queue,
		jobs:     jobs,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt.applyTimer(t)
	}
	return t
}

// Fire admits one scheduled job and reports whether the queue took it.
func (t *TimerSource) Fire() bool {
	job := t.jobs(core.OriginScheduled)
	accepted := t.queue.AddForSchedule(job)
	if accepted {
		t.logger.Debug("scheduled sync admitted", "job_id", job.ID)
	} else {
		t.logger.Debug("scheduled sync coalesced", "job_id", job.ID)
	}
	return accepted
}

// Start fires on schedule until ctx is cancelled. Blocks until then.
func (t *TimerSource) Start(ctx context.Context) error {
	if t.runOnStart {
		t.Fire()
	}

	for {
		now := time.Now()
		next := t.schedule.Next(now)
		t.logger.Debug("next scheduled sync", "at", next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			t.Fire()
		}
	}
}
