package core

import "time"

// Event is the interface for all pipeline events.
type Event interface {
	eventMarker()
}

// RunStarted is emitted when the orchestrator begins a run.
type RunStarted struct {
	RunID        string
	Origin       Origin
	FullMetadata bool
	Timestamp    time.Time
}

func (*RunStarted) eventMarker() {}

// RunCompleted is emitted when every stage of a run finished.
type RunCompleted struct {
	RunID     string
	Run       SyncRun
	Duration  time.Duration
	Timestamp time.Time
}

func (*RunCompleted) eventMarker() {}

// RunAborted is emitted when a target hook returned false.
type RunAborted struct {
	RunID     string
	Stage     string
	Timestamp time.Time
}

func (*RunAborted) eventMarker() {}

// RunFailed is emitted when a run ended with an error.
type RunFailed struct {
	RunID     string
	Error     error
	Timestamp time.Time
}

func (*RunFailed) eventMarker() {}

// PageCommitted is emitted after a page was delivered and its cursor stored.
type PageCommitted struct {
	RunID     string
	Cursor    Cursor
	Assets    int
	Timestamp time.Time
}

func (*PageCommitted) eventMarker() {}

// JobRejected is emitted when the queue coalesces an admission.
type JobRejected struct {
	JobID     string
	Origin    Origin
	Timestamp time.Time
}

func (*JobRejected) eventMarker() {}

// JobStarted is emitted when the queue begins executing a job.
type JobStarted struct {
	Job       *Job
	Timestamp time.Time
}

func (*JobStarted) eventMarker() {}

// JobFinished is emitted when a job body returned or panicked.
type JobFinished struct {
	Job       *Job
	Duration  time.Duration
	Panicked  bool
	Timestamp time.Time
}

func (*JobFinished) eventMarker() {}
