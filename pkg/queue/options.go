package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// Queue capacity: one normal slot plus one extra slot for a scheduled job
// waiting behind a push job.
const (
	normalSlots   = 1
	extraSlots    = 1
	QueueCapacity = normalSlots + extraSlots
)

// Recorder receives queue metrics.
type Recorder interface {
	JobAdmitted(origin core.Origin)
	JobRejected(origin core.Origin)
	JobFinished(origin core.Origin, d time.Duration, panicked bool)
}

// Options holds queue configuration.
type Options struct {
	Logger      *slog.Logger
	Recorder    Recorder
	Context     context.Context
	EventBuffer int
}

// NewOptions creates Options with defaults.
func NewOptions() *Options {
	return &Options{
		Logger:      slog.Default(),
		Context:     context.Background(),
		EventBuffer: 100,
	}
}

// Option modifies Options.
type Option interface {
	Apply(*Options)
}

type optionFunc func(*Options)

func (f optionFunc) Apply(o *Options) { f(o) }

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	})
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return optionFunc(func(o *Options) {
		o.Recorder = r
	})
}

// WithContext sets the parent context handed to job bodies. It is
// cancelled by Close.
func WithContext(ctx context.Context) Option {
	return optionFunc(func(o *Options) {
		if ctx != nil {
			o.Context = ctx
		}
	})
}

// WithEventBuffer sets the buffer size of subscriber channels.
func WithEventBuffer(n int) Option {
	return optionFunc(func(o *Options) {
		if n > 0 {
			o.EventBuffer = n
		}
	})
}

type nopRecorder struct{}

func (nopRecorder) JobAdmitted(core.Origin) {}
func (nopRecorder) JobRejected(core.Origin) {}
func (nopRecorder) JobFinished(core.Origin, time.Duration, bool) {}
