// Package runctx carries the current job and sync run in a context.
package runctx

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

type jobKey struct{}
type runKey struct{}

// Run identifies the sync run executing in a context.
type Run struct {
	ID           string
	Origin       core.Origin
	FullMetadata bool
	StartedAt    time.Time
}

// WithJob returns a context carrying job.
func WithJob(ctx context.Context, job *core.Job) context.Context {
	return context.WithValue(ctx, jobKey{}, job)
}

// JobFromContext returns the current Job from context, or nil if not in a queued job.
func JobFromContext(ctx context.Context) *core.Job {
	job, _ := ctx.Value(jobKey{}).(*core.Job)
	return job
}

// JobIDFromContext returns the current job ID from context, or empty string.
func JobIDFromContext(ctx context.Context) string {
	if job := JobFromContext(ctx); job != nil {
		return job.ID
	}
	return ""
}

// WithRun returns a context carrying run.
func WithRun(ctx context.Context, run *Run) context.Context {
	return context.WithValue(ctx, runKey{}, run)
}

// RunFromContext returns the current Run from context, or nil.
func RunFromContext(ctx context.Context) *Run {
	run, _ := ctx.Value(runKey{}).(*Run)
	return run
}

// RunIDFromContext returns the current run ID from context, or empty string.
func RunIDFromContext(ctx context.Context) string {
	if run := RunFromContext(ctx); run != nil {
		return run.ID
	}
	return ""
}

// Logger returns base annotated with the job and run found in ctx.
func Logger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	if job := JobFromContext(ctx); job != nil {
		base = base.With("job_id", job.ID)
	}
	if run := RunFromContext(ctx); run != nil {
		base = base.With("run_id", run.ID, "origin", run.Origin.String())
	}
	return base
}
