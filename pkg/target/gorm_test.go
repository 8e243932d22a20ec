package target

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

func newTestTarget(t *testing.T, opts ...GormOption) *GormTarget {
	t.Helper()
	tgt := NewGormTarget(openTestDB(t), opts...)
	require.NoError(t, tgt.Migrate(context.Background()))
	return tgt
}

func binaryAsset(id, binaryID string) *core.TargetAsset {
	return &core.TargetAsset{
		Kind:        core.KindBinary,
		ID:          id,
		BinaryID:    binaryID,
		ContentType: "image",
		Name:        core.Translated{"en": "Sunset " + binaryID},
	}
}

func TestCapabilities(t *testing.T) {
	caps := MultiLanguage | BinaryUpdates
	assert.True(t, caps.Has(MultiLanguage))
	assert.True(t, caps.Has(MultiLanguage|BinaryUpdates))
	assert.False(t, caps.Has(CompoundAssets))
	assert.False(t, caps.Has(MultiLanguage|CompoundAssets))
	assert.Equal(t, "multi_language,binary_updates", caps.String())
	assert.Equal(t, "none", Capabilities(0).String())
	assert.True(t, AllCapabilities.Has(ReuseHandling))
}

func TestParseCapabilities(t *testing.T) {
	caps, err := ParseCapabilities([]string{"multi_language", " Binary_Updates "})
	require.NoError(t, err)
	assert.Equal(t, MultiLanguage|BinaryUpdates, caps)

	caps, err = ParseCapabilities([]string{"all"})
	require.NoError(t, err)
	assert.Equal(t, AllCapabilities, caps)

	caps, err = ParseCapabilities(nil)
	require.NoError(t, err)
	assert.Equal(t, Capabilities(0), caps)

	_, err = ParseCapabilities([]string{"teleport"})
	assert.ErrorContains(t, err, "teleport")
}

func TestHooks_Defaults(t *testing.T) {
	ctx := context.Background()
	var h Hooks

	ok, err := h.BeforeSync(ctx)
	assert.True(t, ok)
	assert.NoError(t, err)
	ok, _ = h.BeforeGenericMetadataSync(ctx)
	assert.True(t, ok)
	ok, _ = h.BeforeAssetsSync(ctx)
	assert.True(t, ok)
	assert.NoError(t, h.AfterGenericMetadataSync(ctx))
	assert.NoError(t, h.AfterAssetsSync(ctx))
	assert.NoError(t, h.AfterSync(ctx))

	assert.NotPanics(t, func() {
		h.ClearMetadataCaches(ctx)
		h.HandleAuthenticationError(ctx, &core.AuthenticationError{Err: errors.New("x")})
		h.HandlePipelineError(ctx, &core.PipelineError{Kind: core.KindGeneric, Err: errors.New("y")})
	})
}

func TestGormTarget_ImportMetadata(t *testing.T) {
	ctx := context.Background()
	tgt := newTestTarget(t)

	elems := []core.MetadataElement{
		{Key: "image", Values: core.Translated{"en": "Image"}},
		{Key: "video", Values: core.Translated{"en": "Video"}},
	}
	ids, err := tgt.ImportMetadata(ctx, core.ContentTypes, elems)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids["image"])
	assert.NotEqual(t, ids["image"], ids["video"])

	// Re-import keeps IDs stable and updates names
	elems[0].Values = core.Translated{"en": "Picture"}
	again, err := tgt.ImportMetadata(ctx, core.ContentTypes, elems)
	require.NoError(t, err)
	assert.Equal(t, ids, again)

	recs, err := tgt.Metadata(ctx, core.ContentTypes)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, core.Translated{"en": "Picture"}, recs[0].Names)

	// Same key in another category is a separate element
	other, err := tgt.ImportMetadata(ctx, core.BinaryTypes, []core.MetadataElement{{Key: "image"}})
	require.NoError(t, err)
	assert.NotEqual(t, ids["image"], other["image"])

	empty, err := tgt.ImportMetadata(ctx, core.LicenseSizes, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestGormTarget_ResolveMetadataKey(t *testing.T) {
	ctx := context.Background()
	tgt := newTestTarget(t)

	ids, err := tgt.ImportMetadata(ctx, core.ContentProviders, []core.MetadataElement{{Key: "getty"}})
	require.NoError(t, err)

	id, found, err := tgt.ResolveMetadataKey(ctx, core.ContentProviders, "getty")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, ids["getty"], id)

	_, found, err = tgt.ResolveMetadataKey(ctx, core.ContentTypes, "getty")
	require.NoError(t, err)
	assert.False(t, found, "keys are scoped to their category")

	_, found, err = tgt.ResolveMetadataKey(ctx, core.ContentProviders, "unknown")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGormTarget_DeliverAndFind(t *testing.T) {
	ctx := context.Background()
	tgt := newTestTarget(t)

	a := binaryAsset("lpt-1", "b1")
	_, found, err := tgt.FindExisting(ctx, a)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, tgt.ImportNewBinaries(ctx, t.TempDir(), []*core.TargetAsset{a}))
	assert.NotEmpty(t, a.TargetID)

	id, found, err := tgt.FindExisting(ctx, binaryAsset("lpt-1", "b1"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, a.TargetID, id)

	updated := binaryAsset("lpt-1", "b1")
	updated.TargetID = id
	updated.BinaryVersion = 2
	require.NoError(t, tgt.UpdateBinaries(ctx, t.TempDir(), []*core.TargetAsset{updated}))

	recs, err := tgt.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2, recs[0].BinaryVersion)
	assert.Equal(t, "binary", recs[0].Kind)
}

func TestGormTarget_Compound(t *testing.T) {
	ctx := context.Background()
	tgt := newTestTarget(t)

	parts := []*core.TargetAsset{binaryAsset("lpt-2", "b1"), binaryAsset("lpt-2", "b2")}
	compound := &core.TargetAsset{Kind: core.KindCompound, ID: "lpt-2", Parts: parts}

	// Parts must be delivered first
	err := tgt.ImportNewCompounds(ctx, "", []*core.TargetAsset{compound})
	var deliveryErr *core.TargetDeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Equal(t, "import_new_compounds", deliveryErr.Operation)

	require.NoError(t, tgt.ImportNewBinaries(ctx, "", parts))
	require.NoError(t, tgt.ImportNewCompounds(ctx, "", []*core.TargetAsset{compound}))

	id, found, err := tgt.FindExisting(ctx, &core.TargetAsset{Kind: core.KindCompound, ID: "lpt-2"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, compound.TargetID, id)

	recs, err := tgt.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, rec := range recs {
		if rec.Kind == "compound" {
			assert.Equal(t, []string{parts[0].TargetID, parts[1].TargetID}, rec.PartIDs)
		}
	}
}

func TestGormTarget_UpdateWithoutTargetID(t *testing.T) {
	tgt := newTestTarget(t)
	err := tgt.UpdateBinaries(context.Background(), "", []*core.TargetAsset{binaryAsset("lpt-3", "b1")})
	var deliveryErr *core.TargetDeliveryError
	require.ErrorAs(t, err, &deliveryErr)
	assert.Contains(t, err.Error(), "missing target ID")
}

func TestGormTarget_BatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	tgt := newTestTarget(t)

	good := binaryAsset("lpt-4", "b1")
	bad := binaryAsset("lpt-4", "b2")
	bad.Kind = core.KindCompound
	bad.Parts = []*core.TargetAsset{binaryAsset("lpt-4", "missing")}

	err := tgt.ImportNewBinaries(ctx, "", []*core.TargetAsset{good, bad})
	require.Error(t, err)

	recs, err := tgt.Assets(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGormTarget_Downloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("binary-bytes"))
	}))
	defer srv.Close()

	ctx := context.Background()
	tgt := newTestTarget(t, WithDownloads(srv.Client()))
	workDir := t.TempDir()

	a := binaryAsset("lpt-5", "b1")
	a.DownloadURL = srv.URL + "/file"
	a.RecommendedFileName = "../../etc/sunset.jpg"
	require.NoError(t, tgt.ImportNewBinaries(ctx, workDir, []*core.TargetAsset{a}))

	recs, err := tgt.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "lpt-5_b1_sunset.jpg", recs[0].FileName)
	assert.Equal(t, int64(len("binary-bytes")), recs[0].FileSize)
	assert.Len(t, recs[0].Checksum, 64)

	data, err := os.ReadFile(filepath.Join(workDir, recs[0].FileName))
	require.NoError(t, err)
	assert.Equal(t, "binary-bytes", string(data))

	missing := binaryAsset("lpt-5", "b2")
	missing.DownloadURL = srv.URL + "/missing"
	err = tgt.ImportNewBinaries(ctx, workDir, []*core.TargetAsset{missing})
	assert.ErrorContains(t, err, "HTTP 404")
}

func TestGormTarget_ErrorHandlersRecordLastError(t *testing.T) {
	ctx := context.Background()
	tgt := newTestTarget(t, WithCapabilities(MultiLanguage))
	assert.Equal(t, MultiLanguage, tgt.Capabilities())
	assert.NoError(t, tgt.LastError())

	authErr := &core.AuthenticationError{Err: errors.New("expired")}
	tgt.HandleAuthenticationError(ctx, authErr)
	assert.Equal(t, authErr, tgt.LastError())

	pipeErr := &core.PipelineError{Kind: core.KindDelivery, Err: errors.New("disk")}
	tgt.HandlePipelineError(ctx, pipeErr)
	assert.Equal(t, pipeErr, tgt.LastError())
}

func TestDeliverAll_StopsAtFirstError(t *testing.T) {
	var delivered []string
	d := delivererFunc(func(_ context.Context, _ string, _ core.Classification, a *core.TargetAsset) error {
		if a.ID == "bad" {
			return errors.New("rejected")
		}
		delivered = append(delivered, a.ID)
		return nil
	})

	err := DeliverAll(context.Background(), d, "", core.NewBinary, []*core.TargetAsset{{ID: "a"}, {ID: "bad"}, {ID: "c"}})
	assert.EqualError(t, err, "rejected")
	assert.Equal(t, []string{"a"}, delivered)
}

type delivererFunc func(context.Context, string, core.Classification, *core.TargetAsset) error

func (f delivererFunc) Deliver(ctx context.Context, workDir string, c core.Classification, a *core.TargetAsset) error {
	return f(ctx, workDir, c, a)
}
