package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Origin tells which trigger produced a job.
type Origin int

const (
	// OriginScheduled jobs come from the timer and run a full sync.
	OriginScheduled Origin = iota
	// OriginPush jobs come from a push notification and skip generic metadata.
	OriginPush
)

func (o Origin) String() string {
	switch o {
	case OriginScheduled:
		return "scheduled"
	case OriginPush:
		return "push"
	default:
		return "unknown"
	}
}

// FullMetadata reports whether jobs of this origin import generic metadata.
func (o Origin) FullMetadata() bool {
	return o == OriginScheduled
}

// Job is a deferred pipeline execution tagged with its origin.
// Jobs are immutable once enqueued.
type Job struct {
	ID        string
	Origin    Origin
	CreatedAt time.Time

	run func(ctx context.Context)
}

// NewJob creates a job that invokes fn when executed.
func NewJob(origin Origin, fn func(ctx context.Context)) *Job {
	return &Job{
		ID:        uuid.New().String(),
		Origin:    origin,
		CreatedAt: time.Now(),
		run:       fn,
	}
}

// Execute runs the job body. A job without a body is a no-op.
func (j *Job) Execute(ctx context.Context) {
	if j == nil || j.run == nil {
		return
	}
	j.run(ctx)
}

// Cursor is the continuation point of the paginated asset feed.
type Cursor struct {
	Token   string `json:"token" yaml:"token"`
	HasMore bool   `json:"has_more" yaml:"has_more"`
}

// RunStatus is the lifecycle state of a recorded sync run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusAborted   RunStatus = "aborted"
	RunStatusFailed    RunStatus = "failed"
)

// SyncRun records one pipeline execution.
type SyncRun struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	JobID            string     `gorm:"size:36;index" json:"job_id,omitempty"`
	Origin           string     `gorm:"size:20" json:"origin"`
	FullMetadata     bool       `json:"full_metadata"`
	Status           RunStatus  `gorm:"index;size:20" json:"status"`
	AbortedAt        string     `gorm:"size:64" json:"aborted_at,omitempty"`
	Pages            int        `json:"pages"`
	Assets           int        `json:"assets"`
	MetadataElements int        `json:"metadata_elements"`
	NewBinaries      int        `json:"new_binaries"`
	UpdatedBinaries  int        `json:"updated_binaries"`
	NewCompounds     int        `json:"new_compounds"`
	UpdatedCompounds int        `json:"updated_compounds"`
	ErrorKind        string     `gorm:"size:32" json:"error_kind,omitempty"`
	Error            string     `gorm:"type:text" json:"error,omitempty"`
	Cursor           string     `gorm:"size:255" json:"cursor,omitempty"`
	StartedAt        time.Time  `gorm:"index" json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// TableName keeps the run table name stable across renames.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// Delivered returns the number of target assets handed to the target.
func (r *SyncRun) Delivered() int {
	return r.NewBinaries + r.UpdatedBinaries + r.NewCompounds + r.UpdatedCompounds
}
