package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-asset-sync/pkg/api"
	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/orchestrator"
	"github.com/jdziat/simple-asset-sync/pkg/queue"
)

var (
	_ queue.Recorder        = (*Metrics)(nil)
	_ api.Recorder          = (*Metrics)(nil)
	_ orchestrator.Recorder = (*Metrics)(nil)
)

func TestMetrics_Queue(t *testing.T) {
	m := New()

	m.JobAdmitted(core.OriginPush)
	m.JobAdmitted(core.OriginPush)
	m.JobRejected(core.OriginScheduled)
	m.JobFinished(core.OriginPush, time.Second, false)
	m.JobFinished(core.OriginPush, time.Second, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.jobsAdmitted.WithLabelValues("push")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobsRejected.WithLabelValues("scheduled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobPanics))
}

func TestMetrics_Client(t *testing.T) {
	m := New()

	m.Retried("fetch_metadata", "rate_limited")
	m.TokenRefreshed()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.apiRetries.WithLabelValues("fetch_metadata", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tokenRefreshes))
}

func TestMetrics_Orchestrator(t *testing.T) {
	m := New()

	m.RunFinished(core.OriginScheduled, core.RunStatusCompleted, 2*time.Second)
	m.AssetsDelivered(core.NewBinary, 3)
	m.AssetsDelivered(core.NewBinary, 2)
	m.CursorCommitted()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("scheduled", "completed")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.assetsDelivered.WithLabelValues(core.NewBinary.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cursorCommits))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.CursorCommitted()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "assetsync_sync_cursor_commits_total 1")
}
