package queue

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/runctx"
)

// Queue admits sync jobs and runs them one at a time.
//
// Queue contents and run state are owned by a single actor goroutine and
// are only reached through its command channel. Job bodies run on their
// own goroutine so admission never waits on a running pipeline.
type Queue struct {
	cmds   chan command
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	logger   *slog.Logger
	recorder Recorder

	closeOnce sync.Once

	// Event stream
	mu        sync.RWMutex
	eventSubs []chan core.Event
	eventBuf  int
}

type commandKind int

const (
	cmdAdd commandKind = iota
	cmdRun
	cmdQuery
	cmdFinished
	cmdWait
	cmdClose
)

type command struct {
	kind   commandKind
	entry  entry
	reply  chan bool
	state  chan snapshot
	notify chan struct{}
}

type entry struct {
	origin core.Origin
	job    *core.Job
}

type snapshot struct {
	waiting int
	current *core.Job
}

// actorState is touched only by the actor goroutine.
type actorState struct {
	waiting []entry
	current *core.Job
	closed  bool
	waiters []chan struct{}
}

func (s *actorState) idle() bool {
	return s.current == nil && len(s.waiting) == 0
}

// New creates a Queue and starts its actor.
func New(opts ...Option) *Queue {
	o := NewOptions()
	for _, opt := range opts {
		opt.Apply(o)
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}

	ctx, cancel := context.WithCancel(o.Context)
	q := &Queue{
		cmds:     make(chan command),
		done:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		logger:   o.Logger,
		recorder: o.Recorder,
		eventBuf: o.EventBuffer,
	}
	go q.loop()
	return q
}

// AddForSchedule admits a timer-driven job. It is rejected when the queue is
// full or when the single waiting job is itself scheduled.
func (q *Queue) AddForSchedule(job *core.Job) bool {
	return q.Add(core.OriginScheduled, job)
}

// AddForPush admits a push-triggered job. It is rejected whenever any job
// is already waiting.
func (q *Queue) AddForPush(job *core.Job) bool {
	return q.Add(core.OriginPush, job)
}

// Add admits job under the rules for origin. Accepted jobs start draining
// immediately; rejected jobs are dropped without error.
func (q *Queue) Add(origin core.Origin, job *core.Job) bool {
	if job == nil {
		return false
	}
	if origin != core.OriginScheduled && origin != core.OriginPush {
		q.logger.Warn("rejecting job with unknown origin", "job_id", job.ID, "origin", int(origin))
		return false
	}

	reply := make(chan bool, 1)
	if !q.send(command{kind: cmdAdd, entry: entry{origin: origin, job: job}, reply: reply}) {
		return false
	}

	if accepted := <-reply; !accepted {
		q.logger.Debug("job coalesced", "job_id", job.ID, "origin", origin.String())
		q.recorder.JobRejected(origin)
		q.Emit(&core.JobRejected{JobID: job.ID, Origin: origin, Timestamp: time.Now()})
		return false
	}

	q.logger.Debug("job admitted", "job_id", job.ID, "origin", origin.String())
	q.recorder.JobAdmitted(origin)
	return true
}

// Run starts the head job if nothing is running. It never blocks on a
// running job.
func (q *Queue) Run() {
	q.send(command{kind: cmdRun})
}

// HasWaitingJob reports whether a job is waiting to run.
func (q *Queue) HasWaitingJob() bool {
	return q.query().waiting > 0
}

// IsRunning reports whether a job is executing.
func (q *Queue) IsRunning() bool {
	return q.query().current != nil
}

// Len returns the number of waiting jobs.
func (q *Queue) Len() int {
	return q.query().waiting
}

// Current returns the running job, or nil.
func (q *Queue) Current() *core.Job {
	return q.query().current
}

// Wait blocks until the queue is idle and empty, the queue is closed, or
// ctx is done.
func (q *Queue) Wait(ctx context.Context) error {
	notify := make(chan struct{})
	if !q.send(command{kind: cmdWait, notify: notify}) {
		return nil
	}
	select {
	case <-notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops admission, drops waiting jobs and cancels the job context.
// It returns once the running job, if any, has returned.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.send(command{kind: cmdClose})
	})
	<-q.done
}

// Events returns a channel for receiving queue events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (q *Queue) Events() <-chan core.Event {
	ch := make(chan core.Event, q.eventBuf)
	q.mu.Lock()
	q.eventSubs = append(q.eventSubs, ch)
	q.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber channel created by Events().
func (q *Queue) Unsubscribe(ch <-chan core.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, sub := range q.eventSubs {
		if sub == ch {
			q.eventSubs = append(q.eventSubs[:i], q.eventSubs[i+1:]...)
			return
		}
	}
}

// Emit emits an event to all subscribers.
func (q *Queue) Emit(e core.Event) {
	q.mu.RLock()
	subs := make([]chan core.Event, len(q.eventSubs))
	copy(subs, q.eventSubs)
	q.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full
		}
	}
}

func (q *Queue) send(cmd command) bool {
	select {
	case q.cmds <- cmd:
		return true
	case <-q.done:
		return false
	}
}

func (q *Queue) query() snapshot {
	state := make(chan snapshot, 1)
	if !q.send(command{kind: cmdQuery, state: state}) {
		return snapshot{}
	}
	return <-state
}

func (q *Queue) loop() {
	var st actorState
	defer func() {
		for _, w := range st.waiters {
			close(w)
		}
		close(q.done)
	}()

	for {
		cmd := <-q.cmds
		switch cmd.kind {
		case cmdAdd:
			accepted := !st.closed && admits(st.waiting, cmd.entry.origin)
			if accepted {
				st.waiting = append(st.waiting, cmd.entry)
				q.drain(&st)
			}
			cmd.reply <- accepted

		case cmdRun:
			q.drain(&st)

		case cmdQuery:
			cmd.state <- snapshot{waiting: len(st.waiting), current: st.current}

		case cmdFinished:
			st.current = nil
			q.drain(&st)

		case cmdWait:
			st.waiters = append(st.waiters, cmd.notify)

		case cmdClose:
			st.closed = true
			if n := len(st.waiting); n > 0 {
				q.logger.Info("dropping waiting jobs on close", "count", n)
			}
			st.waiting = nil
			q.cancel()
		}

		if st.idle() && len(st.waiters) > 0 {
			for _, w := range st.waiters {
				close(w)
			}
			st.waiters = nil
		}
		if st.closed && st.current == nil {
			return
		}
	}
}

// admits applies the slot rules to the waiting jobs.
func admits(waiting []entry, origin core.Origin) bool {
	if origin == core.OriginPush {
		return len(waiting) == 0
	}
	switch len(waiting) {
	case 0:
		return true
	case normalSlots:
		// The extra slot only takes a scheduled job behind a push job.
		return waiting[0].origin == core.OriginPush
	default:
		return false
	}
}

// drain starts the head job when nothing is running.
func (q *Queue) drain(st *actorState) {
	if st.current != nil || st.closed || len(st.waiting) == 0 {
		return
	}
	head := st.waiting[0]
	st.waiting = append(st.waiting[:0], st.waiting[1:]...)
	st.current = head.job
	go q.execute(head)
}

func (q *Queue) execute(e entry) {
	start := time.Now()
	q.logger.Info("job started", "job_id", e.job.ID, "origin", e.origin.String())
	q.Emit(&core.JobStarted{Job: e.job, Timestamp: start})

	panicked := false
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			q.logger.Error("job panicked",
				"job_id", e.job.ID,
				"origin", e.origin.String(),
				"panic", r,
				"stack", string(debug.Stack()))
		}

		d := time.Since(start)
		q.recorder.JobFinished(e.origin, d, panicked)
		q.logger.Info("job finished", "job_id", e.job.ID, "origin", e.origin.String(), "duration", d)
		q.Emit(&core.JobFinished{Job: e.job, Duration: d, Panicked: panicked, Timestamp: time.Now()})

		q.send(command{kind: cmdFinished})
	}()

	e.job.Execute(runctx.WithJob(q.ctx, e.job))
}
