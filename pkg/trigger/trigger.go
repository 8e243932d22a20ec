package trigger

import (
	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// Admitter is the part of the job queue the sources feed.
type Admitter interface {
	AddForSchedule(job *core.Job) bool
	AddForPush(job *core.Job) bool
}

// JobFactory builds the pipeline job for origin.
type JobFactory func(origin core.Origin) *core.Job
