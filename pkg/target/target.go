package target

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// Capabilities is a set of optional target features.
type Capabilities uint8

const (
	// MultiLanguage targets store more than one import language.
	MultiLanguage Capabilities = 1 << iota
	// CompoundAssets targets accept assets with more than one binary.
	CompoundAssets
	// BinaryUpdates targets accept new versions of a known binary.
	BinaryUpdates
	// ReuseHandling targets enforce download reuse limits.
	ReuseHandling
)

// AllCapabilities enables every feature.
const AllCapabilities = MultiLanguage | CompoundAssets | BinaryUpdates | ReuseHandling

// Has reports whether every flag in c is set.
func (caps Capabilities) Has(c Capabilities) bool {
	return caps&c == c
}

var capabilityNames = []struct {
	flag Capabilities
	name string
}{
	{MultiLanguage, "multi_language"},
	{CompoundAssets, "compound_assets"},
	{BinaryUpdates, "binary_updates"},
	{ReuseHandling, "reuse_handling"},
}

func (caps Capabilities) String() string {
	var names []string
	for _, f := range capabilityNames {
		if caps.Has(f.flag) {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseCapabilities parses capability names as printed by String. "all"
// enables every flag and "none" none.
func ParseCapabilities(names []string) (Capabilities, error) {
	var caps Capabilities
next:
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "", "none":
			continue
		case "all":
			caps |= AllCapabilities
			continue
		}
		for _, f := range capabilityNames {
			if f.name == name {
				caps |= f.flag
				continue next
			}
		}
		return 0, fmt.Errorf("unknown capability %q", name)
	}
	return caps, nil
}

// SyncTarget receives generic metadata and transformed assets.
//
// Before* hooks return false to abort the run; errors abort it as well and
// are routed to the error handlers. Bulk calls receive the run's temporary
// working directory for downloaded binaries.
type SyncTarget interface {
	Capabilities() Capabilities

	BeforeSync(ctx context.Context) (bool, error)
	BeforeGenericMetadataSync(ctx context.Context) (bool, error)
	ImportMetadata(ctx context.Context, category core.MetadataCategory, elems []core.MetadataElement) (map[string]string, error)
	AfterGenericMetadataSync(ctx context.Context) error

	// ResolveMetadataKey returns the ID the target stored for a catalog
	// key in an earlier run. Runs that did not import generic metadata
	// resolve asset keys through it; a missing key fails the run.
	ResolveMetadataKey(ctx context.Context, category core.MetadataCategory, key string) (string, bool, error)

	BeforeAssetsSync(ctx context.Context) (bool, error)

	// FindExisting returns the target ID of an asset the target already holds.
	FindExisting(ctx context.Context, asset *core.TargetAsset) (string, bool, error)

	ImportNewBinaries(ctx context.Context, workDir string, assets []*core.TargetAsset) error
	UpdateBinaries(ctx context.Context, workDir string, assets []*core.TargetAsset) error
	ImportNewCompounds(ctx context.Context, workDir string, assets []*core.TargetAsset) error
	UpdateCompounds(ctx context.Context, workDir string, assets []*core.TargetAsset) error

	AfterAssetsSync(ctx context.Context) error
	AfterSync(ctx context.Context) error

	// ClearMetadataCaches drops any metadata the target cached during a run.
	ClearMetadataCaches(ctx context.Context)

	HandleAuthenticationError(ctx context.Context, err *core.AuthenticationError)
	HandlePipelineError(ctx context.Context, err *core.PipelineError)
}

// Deliverer stores one classified asset.
type Deliverer interface {
	Deliver(ctx context.Context, workDir string, class core.Classification, asset *core.TargetAsset) error
}

// DeliverAll hands every asset to d, stopping at the first error.
func DeliverAll(ctx context.Context, d Deliverer, workDir string, class core.Classification, assets []*core.TargetAsset) error {
	for _, asset := range assets {
		if err := d.Deliver(ctx, workDir, class, asset); err != nil {
			return err
		}
	}
	return nil
}

// Hooks provides no-op lifecycle hooks and logging error handlers. Embed it
// to implement only the calls a target cares about.
type Hooks struct {
	Logger *slog.Logger
}

func (h Hooks) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// BeforeSync lets every run proceed.
func (Hooks) BeforeSync(context.Context) (bool, error) { return true, nil }

// BeforeGenericMetadataSync lets the metadata stage proceed.
func (Hooks) BeforeGenericMetadataSync(context.Context) (bool, error) { return true, nil }

// AfterGenericMetadataSync does nothing.
func (Hooks) AfterGenericMetadataSync(context.Context) error { return nil }

// BeforeAssetsSync lets the asset stage proceed.
func (Hooks) BeforeAssetsSync(context.Context) (bool, error) { return true, nil }

// AfterAssetsSync does nothing.
func (Hooks) AfterAssetsSync(context.Context) error { return nil }

// AfterSync does nothing.
func (Hooks) AfterSync(context.Context) error { return nil }

// ClearMetadataCaches does nothing.
func (Hooks) ClearMetadataCaches(context.Context) {}

// HandleAuthenticationError logs the failure.
func (h Hooks) HandleAuthenticationError(_ context.Context, err *core.AuthenticationError) {
	h.logger().Error("sync authentication failed", "error", err)
}

// HandlePipelineError logs the failure.
func (h Hooks) HandlePipelineError(_ context.Context, err *core.PipelineError) {
	h.logger().Error("sync pipeline failed", "kind", string(err.Kind), "error", err)
}
