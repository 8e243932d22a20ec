package assetsync_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	assetsync "github.com/jdziat/simple-asset-sync"
	"github.com/jdziat/simple-asset-sync/pkg/config"
	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/storage"
)

func element(key, name string) map[string]any {
	return map[string]any{
		"culture":          "en",
		"metadata_element": map[string]any{"key": key, "name": name},
	}
}

// catalogServer fakes the consumer API: one transaction with two binaries
// on the first page, then an empty page. The first metadata request is
// refused once to exercise the retry path. When replay is set, the page
// after c1 carries the same transaction again.
func catalogServer(t *testing.T, refusals *atomic.Int32, replay *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer integration-token", r.Header.Get("Authorization"))

		var body any
		switch {
		case r.URL.Path == "/generic-metadata-for-sync":
			if refusals.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			body = map[string]any{
				"providers":          []any{element("getty", "Getty Images")},
				"content_types":      []any{element("image", "Image")},
				"binary_types":       []any{element("master", "Master"), element("preview", "Preview")},
				"content_categories": []any{element("news", "News")},
				"license_types":      []any{element("rm", "Rights managed")},
			}
		case r.URL.Path == "/license-purchase-transactions-for-sync":
			token := r.URL.Query().Get("continuation_uuid")
			switch {
			case token == "" || (token == "c1" && replay != nil && replay.Load()):
				next := "c1"
				if token == "c1" {
					next = "c2"
				}
				body = map[string]any{
					"count":             1,
					"continuation_uuid": next,
					"license_purchase_transactions": []any{map[string]any{
						"uuid":                           "lpt-1",
						"cart_purchase_transaction_uuid": "cart-1",
						"state":                          "active",
						"can_be_synced":                  true,
						"content_element": map[string]any{
							"uuid":             "ce-1",
							"provider":         "getty",
							"content_type":     "image",
							"content_category": "news",
							"name":             []any{map[string]any{"culture": "en", "value": "Sunset"}},
						},
						"offering": map[string]any{"license_type": "rm"},
					}},
				}
			default:
				body = map[string]any{"count": 0, "continuation_uuid": token}
			}
		case strings.HasSuffix(r.URL.Path, "/binaries-for-sync"):
			assert.Equal(t, "/cart-purchase-transactions/cart-1/license-purchase-transactions/lpt-1/binaries-for-sync", r.URL.Path)
			body = []any{
				map[string]any{"uuid": "b1", "binary_type": "master", "version": 1},
				map[string]any{"uuid": "b2", "binary_type": "preview", "version": 1},
			}
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newIntegrationApp(t *testing.T, catalogURL string) *assetsync.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Catalog.BaseURL = catalogURL
	cfg.Catalog.RetryBaseDelay = time.Millisecond
	cfg.Catalog.RateLimit = 1000
	cfg.Auth.AccessToken = "integration-token"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "assetsync.db")
	cfg.Sync.TenantID = "acme"
	cfg.Sync.ImportLanguages = []string{"en"}
	cfg.Sync.ChannelID = "ch-1"
	cfg.Sync.TempDir = t.TempDir()
	require.NoError(t, cfg.Validate())

	app, err := assetsync.NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestIntegration_ScheduledThenPush(t *testing.T) {
	var refusals atomic.Int32
	srv := catalogServer(t, &refusals, nil)
	app := newIntegrationApp(t, srv.URL)
	ctx := context.Background()

	// Scheduled run: metadata, one transaction, two binaries plus compound.
	require.True(t, app.Engine.SyncNow(assetsync.OriginScheduled))
	waitIdle(t, app.Engine)

	assert.Equal(t, int32(2), refusals.Load(), "metadata fetched after one retry")

	assets, err := app.Target.Assets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 3)

	meta, err := app.Target.Metadata(ctx, core.BinaryTypes)
	require.NoError(t, err)
	assert.Len(t, meta, 2)

	cursor, err := app.Storage.GetCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, &core.Cursor{Token: "c1", HasMore: true}, cursor)

	runs, err := app.Storage.ListRuns(ctx, storage.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, core.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 2, runs[0].NewBinaries)
	assert.Equal(t, 1, runs[0].NewCompounds)
	assert.Equal(t, 2, runs[0].Pages)
	assert.True(t, runs[0].FullMetadata)

	// Push via the webhook: resumes from the cursor and finds nothing new.
	handler := httptest.NewServer(app.Handler())
	defer handler.Close()

	resp, err := http.Post(handler.URL+"/push", "application/json", strings.NewReader(`{"channel_id":"ch-1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	waitIdle(t, app.Engine)

	assets, err = app.Target.Assets(ctx)
	require.NoError(t, err)
	assert.Len(t, assets, 3)

	resp, err = http.Get(handler.URL + "/runs?origin=push")
	require.NoError(t, err)
	var pushRuns []core.SyncRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pushRuns))
	resp.Body.Close()
	require.Len(t, pushRuns, 1)
	assert.Equal(t, core.RunStatusCompleted, pushRuns[0].Status)
	assert.False(t, pushRuns[0].FullMetadata)
	assert.Zero(t, pushRuns[0].Delivered())

	resp, err = http.Get(handler.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `assetsync_sync_runs_total{origin="push",status="completed"} 1`)
	assert.Contains(t, string(body), `assetsync_catalog_retries_total`)
}

func TestIntegration_PushUpdateKeepsMetadataReferences(t *testing.T) {
	var refusals atomic.Int32
	var replay atomic.Bool
	srv := catalogServer(t, &refusals, &replay)
	app := newIntegrationApp(t, srv.URL)
	ctx := context.Background()

	require.True(t, app.Engine.SyncNow(assetsync.OriginScheduled))
	waitIdle(t, app.Engine)

	before, err := app.Target.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, before, 3)

	providers, err := app.Target.Metadata(ctx, core.ContentProviders)
	require.NoError(t, err)
	require.Len(t, providers, 1)
	for _, rec := range before {
		assert.Equal(t, providers[0].ID, rec.ContentProvider)
	}

	// The push run sees the same transaction again and updates it.
	replay.Store(true)
	require.True(t, app.Engine.SyncNow(assetsync.OriginPush))
	waitIdle(t, app.Engine)

	last := app.Engine.Orchestrator().LastRun()
	require.NotNil(t, last)
	require.Equal(t, core.RunStatusCompleted, last.Status, last.Error)
	assert.False(t, last.FullMetadata)
	assert.Equal(t, 2, last.UpdatedBinaries)
	assert.Equal(t, 1, last.UpdatedCompounds)
	assert.NoError(t, app.Target.LastError())

	after, err := app.Target.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, after, 3)

	byID := make(map[string]storedRefs, len(before))
	for _, rec := range before {
		byID[rec.ID] = storedRefs{rec.ContentProvider, rec.ContentType, rec.ContentCategory, rec.LicenseType, rec.BinaryType}
	}
	for _, rec := range after {
		want, ok := byID[rec.ID]
		require.True(t, ok, "asset %s was replaced instead of updated", rec.ID)
		assert.Equal(t, want, storedRefs{rec.ContentProvider, rec.ContentType, rec.ContentCategory, rec.LicenseType, rec.BinaryType})
	}
}

type storedRefs struct {
	provider, contentType, category, license, binaryType string
}

func TestIntegration_MissingSettingsFailsRun(t *testing.T) {
	var refusals atomic.Int32
	srv := catalogServer(t, &refusals, nil)

	cfg := config.DefaultConfig()
	cfg.Catalog.BaseURL = srv.URL
	cfg.Auth.AccessToken = "integration-token"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "assetsync.db")

	app, err := assetsync.NewApp(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer app.Close()

	require.True(t, app.Engine.SyncNow(assetsync.OriginScheduled))
	waitIdle(t, app.Engine)

	last := app.Engine.Orchestrator().LastRun()
	require.NotNil(t, last)
	assert.Equal(t, core.RunStatusFailed, last.Status)
	assert.Equal(t, string(core.KindConfiguration), last.ErrorKind)
	assert.Zero(t, refusals.Load(), "no request before settings validate")
	assert.Error(t, app.Target.LastError())
}
