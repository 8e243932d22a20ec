package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

type fakeCatalog struct {
	mu       sync.Mutex
	metadata *core.GenericMetadata
	pages    map[string]*core.AssetPage
	metaErr  error
	pageErr  error
	tokens   []string
	metaHits int
}

func (c *fakeCatalog) FetchMetadata(context.Context) (*core.GenericMetadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metaHits++
	if c.metaErr != nil {
		return nil, c.metaErr
	}
	if c.metadata == nil {
		return core.NewGenericMetadata(), nil
	}
	return c.metadata, nil
}

func (c *fakeCatalog) FetchAssetPage(_ context.Context, token string) (*core.AssetPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = append(c.tokens, token)
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	page, ok := c.pages[token]
	if !ok {
		return nil, fmt.Errorf("no page for token %q", token)
	}
	return page, nil
}

func (c *fakeCatalog) fetched() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.tokens...)
}

type memCursors struct {
	mu      sync.Mutex
	cursor  *core.Cursor
	commits []core.Cursor
	setErr  error
}

func (m *memCursors) GetCursor(context.Context) (*core.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor == nil {
		return nil, nil
	}
	c := *m.cursor
	return &c, nil
}

func (m *memCursors) SetCursor(_ context.Context, c core.Cursor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.cursor = &c
	m.commits = append(m.commits, c)
	return nil
}

func (m *memCursors) token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor == nil {
		return ""
	}
	return m.cursor.Token
}

type staticSettings struct {
	settings *core.Settings
	err      error
}

func (s staticSettings) Settings(context.Context) (*core.Settings, error) {
	return s.settings, s.err
}

func settingsFor(languages ...string) staticSettings {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	return staticSettings{settings: &core.Settings{TenantID: "acme", ImportLanguages: languages}}
}

type memRuns struct {
	mu   sync.Mutex
	runs []core.SyncRun
}

func (m *memRuns) SaveRun(_ context.Context, run *core.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

// fakeTarget records every call made by the pipeline.
type fakeTarget struct {
	mu   sync.Mutex
	caps target.Capabilities

	// hook results; missing entries continue
	hooks map[string]bool
	// call name -> error returned by that call
	fail map[string]error
	// existing target IDs keyed by assetKey
	existing map[string]string
	// drop removes a key from ImportMetadata and ResolveMetadataKey results
	drop string

	calls      []string
	delivered  map[core.Classification][]*core.TargetAsset
	authErrs   []*core.AuthenticationError
	pipeErrs   []*core.PipelineError
	workDirs   []string
	onCall     func(name string)
	panicOn    string
	importedBy map[core.MetadataCategory][]core.MetadataElement
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{
		caps:       target.AllCapabilities,
		hooks:      map[string]bool{},
		fail:       map[string]error{},
		existing:   map[string]string{},
		delivered:  map[core.Classification][]*core.TargetAsset{},
		importedBy: map[core.MetadataCategory][]core.MetadataElement{},
	}
}

func assetKey(a *core.TargetAsset) string {
	if a.Kind == core.KindCompound {
		return a.ID
	}
	return a.WorldwideUniqueBinaryID()
}

func (f *fakeTarget) record(name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	err := f.fail[name]
	hook := f.onCall
	panicking := f.panicOn == name
	f.mu.Unlock()

	if hook != nil {
		hook(name)
	}
	if panicking {
		panic("target exploded in " + name)
	}
	return err
}

func (f *fakeTarget) gate(name string) (bool, error) {
	if err := f.record(name); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ok, set := f.hooks[name]
	return !set || ok, nil
}

func (f *fakeTarget) Capabilities() target.Capabilities { return f.caps }

func (f *fakeTarget) BeforeSync(context.Context) (bool, error) {
	return f.gate("BeforeSync")
}

func (f *fakeTarget) BeforeGenericMetadataSync(context.Context) (bool, error) {
	return f.gate("BeforeGenericMetadataSync")
}

func (f *fakeTarget) ImportMetadata(_ context.Context, category core.MetadataCategory, elems []core.MetadataElement) (map[string]string, error) {
	if err := f.record("ImportMetadata"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.importedBy[category] = elems
	ids := make(map[string]string, len(elems))
	for _, e := range elems {
		if e.Key == f.drop {
			continue
		}
		ids[e.Key] = "id-" + e.Key
	}
	return ids, nil
}

// ResolveMetadataKey answers like an earlier ImportMetadata would have.
func (f *fakeTarget) ResolveMetadataKey(_ context.Context, _ core.MetadataCategory, key string) (string, bool, error) {
	if err := f.record("ResolveMetadataKey"); err != nil {
		return "", false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if key == f.drop {
		return "", false, nil
	}
	return "id-" + key, true, nil
}

func (f *fakeTarget) AfterGenericMetadataSync(context.Context) error {
	return f.record("AfterGenericMetadataSync")
}

func (f *fakeTarget) BeforeAssetsSync(context.Context) (bool, error) {
	return f.gate("BeforeAssetsSync")
}

func (f *fakeTarget) FindExisting(_ context.Context, asset *core.TargetAsset) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["FindExisting"]; err != nil {
		return "", false, err
	}
	id, ok := f.existing[assetKey(asset)]
	return id, ok, nil
}

func (f *fakeTarget) bulk(name string, class core.Classification, workDir string, assets []*core.TargetAsset) error {
	if err := f.record(name); err != nil {
		return err
	}
	if _, err := os.Stat(workDir); err != nil {
		return errors.New("working directory missing")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.workDirs = append(f.workDirs, workDir)
	f.delivered[class] = append(f.delivered[class], assets...)
	return nil
}

func (f *fakeTarget) ImportNewBinaries(_ context.Context, workDir string, assets []*core.TargetAsset) error {
	return f.bulk("ImportNewBinaries", core.NewBinary, workDir, assets)
}

func (f *fakeTarget) UpdateBinaries(_ context.Context, workDir string, assets []*core.TargetAsset) error {
	return f.bulk("UpdateBinaries", core.UpdatedBinary, workDir, assets)
}

func (f *fakeTarget) ImportNewCompounds(_ context.Context, workDir string, assets []*core.TargetAsset) error {
	return f.bulk("ImportNewCompounds", core.NewCompound, workDir, assets)
}

func (f *fakeTarget) UpdateCompounds(_ context.Context, workDir string, assets []*core.TargetAsset) error {
	return f.bulk("UpdateCompounds", core.UpdatedCompound, workDir, assets)
}

func (f *fakeTarget) AfterAssetsSync(context.Context) error {
	return f.record("AfterAssetsSync")
}

func (f *fakeTarget) AfterSync(context.Context) error {
	return f.record("AfterSync")
}

func (f *fakeTarget) ClearMetadataCaches(context.Context) {
	_ = f.record("ClearMetadataCaches")
}

func (f *fakeTarget) HandleAuthenticationError(_ context.Context, err *core.AuthenticationError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authErrs = append(f.authErrs, err)
}

func (f *fakeTarget) HandlePipelineError(_ context.Context, err *core.PipelineError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipeErrs = append(f.pipeErrs, err)
}

func (f *fakeTarget) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeTarget) bulkCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		switch c {
		case "ImportNewBinaries", "UpdateBinaries", "ImportNewCompounds", "UpdateCompounds":
			out = append(out, c)
		}
	}
	return out
}

func rawAsset(id string, binaries ...string) *core.RawAsset {
	raw := &core.RawAsset{
		ID:          id,
		Provider:    "getty",
		ContentType: "image",
		LicenseType: "rights_managed",
		Name:        core.Translated{"en": "Asset " + id},
	}
	for _, b := range binaries {
		raw.Binaries = append(raw.Binaries, core.Binary{ID: b, BinaryType: "master", Version: 1})
	}
	return raw
}

func metadataFixture() *core.GenericMetadata {
	meta := core.NewGenericMetadata()
	meta.Categories[core.ContentProviders] = []core.MetadataElement{{Key: "getty", Values: core.Translated{"en": "Getty"}}}
	meta.Categories[core.ContentTypes] = []core.MetadataElement{{Key: "image"}}
	meta.Categories[core.BinaryTypes] = []core.MetadataElement{{Key: "master"}}
	meta.Categories[core.LicenseTypes] = []core.MetadataElement{{Key: "rights_managed"}}
	return meta
}
