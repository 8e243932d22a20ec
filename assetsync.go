// Package assetsync syncs licensed assets from a remote catalog into a
// pluggable target store.
//
// This is the main package users should import. It re-exports the public
// types of the pkg/ packages and wires them into an Engine.
//
// Basic usage:
//
//	store := assetsync.NewMemoryStorage(&assetsync.Settings{
//	    TenantID:        "acme",
//	    ImportLanguages: []string{"en"},
//	})
//	client, _ := assetsync.NewClient(&assetsync.ClientConfig{BaseURL: url}, assetsync.StaticToken(token), store)
//	orch, _ := assetsync.NewOrchestrator(client, myTarget, store, store)
//
//	engine, _ := assetsync.NewEngine(orch, store, assetsync.WithSchedule(assetsync.Every(30*time.Minute)))
//	engine.Start(ctx)
package assetsync

import (
	"context"
	"log/slog"

	"github.com/jdziat/simple-asset-sync/pkg/api"
	"github.com/jdziat/simple-asset-sync/pkg/auth"
	"github.com/jdziat/simple-asset-sync/pkg/config"
	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/orchestrator"
	"github.com/jdziat/simple-asset-sync/pkg/queue"
	"github.com/jdziat/simple-asset-sync/pkg/runctx"
	"github.com/jdziat/simple-asset-sync/pkg/security"
	"github.com/jdziat/simple-asset-sync/pkg/storage"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

// Type aliases
type (
	// Job is a deferred pipeline execution tagged with its origin.
	Job = core.Job

	// Origin tells which trigger produced a job.
	Origin = core.Origin

	// Cursor is the continuation point of the asset feed.
	Cursor = core.Cursor

	// Settings is the connector settings snapshot.
	Settings = core.Settings

	// SyncRun records one pipeline execution.
	SyncRun = core.SyncRun

	// RunStatus is the lifecycle state of a SyncRun.
	RunStatus = core.RunStatus

	// GenericMetadata is the localized metadata imported on full runs.
	GenericMetadata = core.GenericMetadata

	// MetadataCategory names one kind of generic metadata.
	MetadataCategory = core.MetadataCategory

	// MetadataElement is one localized metadata value.
	MetadataElement = core.MetadataElement

	// RawAsset is an asset as delivered by the catalog.
	RawAsset = core.RawAsset

	// TargetAsset is the transformed asset handed to a target.
	TargetAsset = core.TargetAsset

	// Classification selects the target call for an asset.
	Classification = core.Classification

	// Event is the interface for all pipeline and queue events.
	Event = core.Event

	// AuthRefresher provides catalog access tokens.
	AuthRefresher = core.AuthRefresher

	// SettingsProvider returns the current settings.
	SettingsProvider = core.SettingsProvider

	// CursorStore persists the asset feed cursor.
	CursorStore = core.CursorStore

	// Queue is the coalescing job execution queue.
	Queue = queue.Queue

	// Orchestrator runs the sync pipeline.
	Orchestrator = orchestrator.Orchestrator

	// Catalog is the remote source of metadata and assets.
	Catalog = orchestrator.Catalog

	// Client is the resilient catalog API client.
	Client = api.Client

	// ClientConfig configures a Client.
	ClientConfig = api.Config

	// SyncTarget receives metadata and assets.
	SyncTarget = target.SyncTarget

	// Hooks is embeddable no-op hook behavior for targets.
	Hooks = target.Hooks

	// Capabilities is a set of optional target features.
	Capabilities = target.Capabilities

	// GormStorage stores cursor, settings, tokens and runs with GORM.
	GormStorage = storage.GormStorage

	// MemoryStorage keeps the same state in memory.
	MemoryStorage = storage.MemoryStorage

	// StaticToken serves a fixed access token.
	StaticToken = auth.StaticToken

	// Config is the process configuration.
	Config = config.Config
)

// Origins
const (
	OriginScheduled = core.OriginScheduled
	OriginPush      = core.OriginPush
)

// Run statuses
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusAborted   = core.RunStatusAborted
	RunStatusFailed    = core.RunStatusFailed
)

// Target capabilities
const (
	MultiLanguage   = target.MultiLanguage
	CompoundAssets  = target.CompoundAssets
	BinaryUpdates   = target.BinaryUpdates
	ReuseHandling   = target.ReuseHandling
	AllCapabilities = target.AllCapabilities
)

// Classifications
const (
	NewBinary       = core.NewBinary
	UpdatedBinary   = core.UpdatedBinary
	NewCompound     = core.NewCompound
	UpdatedCompound = core.UpdatedCompound
)

// Limits
const (
	QueueCapacity         = queue.QueueCapacity
	MaxErrorMessageLength = security.MaxErrorMessageLength
	MaxRunListLimit       = security.MaxRunListLimit
)

// NewQueue creates a job queue.
func NewQueue(opts ...queue.Option) *Queue {
	return queue.New(opts...)
}

// NewClient creates a catalog client.
func NewClient(cfg *ClientConfig, auth AuthRefresher, settings SettingsProvider, opts ...api.Option) (*Client, error) {
	return api.NewClient(cfg, auth, settings, opts...)
}

// NewOrchestrator creates the sync pipeline.
func NewOrchestrator(catalog Catalog, tgt SyncTarget, settings SettingsProvider, cursors CursorStore, opts ...orchestrator.Option) (*Orchestrator, error) {
	return orchestrator.New(catalog, tgt, settings, cursors, opts...)
}

// NewMemoryStorage creates in-memory storage seeded with settings.
func NewMemoryStorage(settings *Settings) *MemoryStorage {
	return storage.NewMemoryStorage(settings)
}

// LoadConfig reads configuration from path, when set, and the environment.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage.
func SanitizeErrorMessage(msg string) string {
	return security.SanitizeErrorMessage(msg)
}

// JobFromContext returns the job running in ctx, or nil.
func JobFromContext(ctx context.Context) *Job {
	return runctx.JobFromContext(ctx)
}

// RunIDFromContext returns the sync run ID in ctx, or "".
func RunIDFromContext(ctx context.Context) string {
	return runctx.RunIDFromContext(ctx)
}

// LoggerFromContext returns base annotated with the job and run in ctx.
func LoggerFromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	return runctx.Logger(ctx, base)
}
