package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvents_ImplementEvent(t *testing.T) {
	now := time.Now()
	events := []Event{
		&RunStarted{RunID: "r", Origin: OriginScheduled, FullMetadata: true, Timestamp: now},
		&RunCompleted{RunID: "r", Duration: time.Second, Timestamp: now},
		&RunAborted{RunID: "r", Stage: "before_sync", Timestamp: now},
		&RunFailed{RunID: "r", Error: errors.New("boom"), Timestamp: now},
		&PageCommitted{RunID: "r", Cursor: Cursor{Token: "t", HasMore: true}, Assets: 10, Timestamp: now},
		&JobRejected{JobID: "j", Origin: OriginPush, Timestamp: now},
		&JobStarted{Job: &Job{ID: "j"}, Timestamp: now},
		&JobFinished{Job: &Job{ID: "j"}, Duration: time.Millisecond, Panicked: true, Timestamp: now},
	}

	for _, e := range events {
		assert.NotNil(t, e)
	}
}
