package target

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// MetadataRecord is a generic metadata element stored by GormTarget.
type MetadataRecord struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Category  string          `gorm:"size:64;uniqueIndex:idx_target_metadata_key" json:"category"`
	Key       string          `gorm:"column:element_key;size:255;uniqueIndex:idx_target_metadata_key" json:"key"`
	Names     core.Translated `gorm:"serializer:json" json:"names"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TableName returns the metadata table name.
func (MetadataRecord) TableName() string {
	return "target_metadata"
}

// AssetRecord is a binary or compound asset stored by GormTarget.
type AssetRecord struct {
	ID                  string              `gorm:"primaryKey;size:36" json:"id"`
	SourceID            string              `gorm:"size:64;uniqueIndex:idx_target_asset_source" json:"source_id"`
	BinaryID            string              `gorm:"size:64;uniqueIndex:idx_target_asset_source" json:"binary_id,omitempty"`
	Kind                string              `gorm:"size:16" json:"kind"`
	ContentProvider     string              `gorm:"size:64" json:"content_provider"`
	ContentType         string              `gorm:"size:64" json:"content_type"`
	ContentCategory     string              `gorm:"size:64" json:"content_category"`
	BinaryType          string              `gorm:"size:64" json:"binary_type,omitempty"`
	LicenseType         string              `gorm:"size:64" json:"license_type"`
	Name                core.Translated     `gorm:"serializer:json" json:"name"`
	Keywords            core.TranslatedList `gorm:"serializer:json" json:"keywords"`
	IsEditorialUse      bool                `json:"is_editorial_use"`
	HasRestrictiveTerms bool                `json:"has_restrictive_terms"`
	MaxReuses           *int                `json:"max_reuses,omitempty"`
	BinaryVersion       int                 `json:"binary_version,omitempty"`
	DownloadURL         string              `gorm:"type:text" json:"download_url,omitempty"`
	FileName            string              `gorm:"size:255" json:"file_name,omitempty"`
	FileSize            int64               `json:"file_size,omitempty"`
	Checksum            string              `gorm:"size:64" json:"checksum,omitempty"`
	PartIDs             []string            `gorm:"serializer:json" json:"part_ids,omitempty"`
	CatalogURL          string              `gorm:"type:text" json:"catalog_url,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// TableName returns the asset table name.
func (AssetRecord) TableName() string {
	return "target_assets"
}

// GormOption configures a GormTarget.
type GormOption interface {
	applyGorm(*GormTarget)
}

type gormOptionFunc func(*GormTarget)

func (f gormOptionFunc) applyGorm(t *GormTarget) { f(t) }

// WithCapabilities overrides the advertised capabilities.
func WithCapabilities(c Capabilities) GormOption {
	return gormOptionFunc(func(t *GormTarget) {
		t.caps = c
	})
}

// WithDownloads makes the target download binaries into the run's working
// directory and record their size and checksum.
func WithDownloads(client *http.Client) GormOption {
	return gormOptionFunc(func(t *GormTarget) {
		if client == nil {
			client = http.DefaultClient
		}
		t.httpClient = client
	})
}

// WithLogger sets the target logger.
func WithLogger(l *slog.Logger) GormOption {
	return gormOptionFunc(func(t *GormTarget) {
		if l != nil {
			t.Logger = l
		}
	})
}

// GormTarget is a SyncTarget that stores metadata and assets in a database.
type GormTarget struct {
	Hooks

	db         *gorm.DB
	caps       Capabilities
	httpClient *http.Client

	mu      sync.Mutex
	lastErr error
}

// NewGormTarget creates a GORM-backed target.
func NewGormTarget(db *gorm.DB, opts ...GormOption) *GormTarget {
	t := &GormTarget{
		Hooks: Hooks{Logger: slog.Default()},
		db:    db,
		caps:  AllCapabilities,
	}
	for _, opt := range opts {
		opt.applyGorm(t)
	}
	return t
}

// Migrate creates the target tables.
func (t *GormTarget) Migrate(ctx context.Context) error {
	return t.db.WithContext(ctx).AutoMigrate(&MetadataRecord{}, &AssetRecord{})
}

// Capabilities returns the advertised capabilities.
func (t *GormTarget) Capabilities() Capabilities {
	return t.caps
}

// ImportMetadata upserts the elements of category and returns their IDs by key.
func (t *GormTarget) ImportMetadata(ctx context.Context, category core.MetadataCategory, elems []core.MetadataElement) (map[string]string, error) {
	ids := make(map[string]string, len(elems))
	if len(elems) == 0 {
		return ids, nil
	}

	keys := make([]string, 0, len(elems))
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range elems {
			rec := &MetadataRecord{
				ID:       uuid.New().String(),
				Category: string(category),
				Key:      e.Key,
				Names:    e.Values,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "category"}, {Name: "element_key"}},
				DoUpdates: clause.AssignmentColumns([]string{"names", "updated_at"}),
			}).Create(rec).Error
			if err != nil {
				return err
			}
			keys = append(keys, e.Key)
		}

		var recs []MetadataRecord
		if err := tx.Where("category = ? AND element_key IN ?", string(category), keys).Find(&recs).Error; err != nil {
			return err
		}
		for _, rec := range recs {
			ids[rec.Key] = rec.ID
		}
		return nil
	})
	if err != nil {
		return nil, &core.TargetDeliveryError{Operation: "import_metadata_" + string(category), Err: err}
	}
	return ids, nil
}

// ResolveMetadataKey returns the ID of a stored metadata element.
func (t *GormTarget) ResolveMetadataKey(ctx context.Context, category core.MetadataCategory, key string) (string, bool, error) {
	var rec MetadataRecord
	err := t.db.WithContext(ctx).
		Select("id").
		Where("category = ? AND element_key = ?", string(category), key).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resolve metadata key: %w", err)
	}
	return rec.ID, true, nil
}

// FindExisting looks up an asset by source transaction and binary.
func (t *GormTarget) FindExisting(ctx context.Context, asset *core.TargetAsset) (string, bool, error) {
	return findExisting(t.db.WithContext(ctx), asset.ID, recordBinaryID(asset))
}

func findExisting(db *gorm.DB, sourceID, binaryID string) (string, bool, error) {
	var rec AssetRecord
	err := db.Select("id").Where("source_id = ? AND binary_id = ?", sourceID, binaryID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("find existing asset: %w", err)
	}
	return rec.ID, true, nil
}

// ImportNewBinaries stores new binary assets.
func (t *GormTarget) ImportNewBinaries(ctx context.Context, workDir string, assets []*core.TargetAsset) error {
	return t.deliverBatch(ctx, "import_new_binaries", workDir, core.NewBinary, assets)
}

// UpdateBinaries overwrites known binary assets.
func (t *GormTarget) UpdateBinaries(ctx context.Context, workDir string, assets []*core.TargetAsset) error {
	return t.deliverBatch(ctx, "update_binaries", workDir, core.UpdatedBinary, assets)
}

// ImportNewCompounds stores new compound assets.
func (t *GormTarget) ImportNewCompounds(ctx context.Context, workDir string, assets []*core.TargetAsset) error {
	return t.deliverBatch(ctx, "import_new_compounds", workDir, core.NewCompound, assets)
}

// UpdateCompounds overwrites known compound assets.
func (t *GormTarget) UpdateCompounds(ctx context.Context, workDir string, assets []*core.TargetAsset) error {
	return t.deliverBatch(ctx, "update_compounds", workDir, core.UpdatedCompound, assets)
}

// txDeliverer delivers within a batch transaction.
type txDeliverer struct {
	t  *GormTarget
	tx *gorm.DB
}

func (d txDeliverer) Deliver(ctx context.Context, workDir string, class core.Classification, asset *core.TargetAsset) error {
	return d.t.deliverOne(ctx, d.tx, workDir, class, asset)
}

func (t *GormTarget) deliverBatch(ctx context.Context, op, workDir string, class core.Classification, assets []*core.TargetAsset) error {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return DeliverAll(ctx, txDeliverer{t: t, tx: tx}, workDir, class, assets)
	})
	if err != nil {
		return &core.TargetDeliveryError{Operation: op, Err: err}
	}
	t.logger().Info("delivered assets", "operation", op, "count", len(assets))
	return nil
}

func (t *GormTarget) deliverOne(ctx context.Context, db *gorm.DB, workDir string, class core.Classification, asset *core.TargetAsset) error {
	rec := toRecord(asset)

	if asset.Kind == core.KindCompound {
		for _, part := range asset.Parts {
			id, ok, err := findExisting(db, part.ID, part.BinaryID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("compound %s: part %s was not delivered", asset.ID, part.BinaryID)
			}
			rec.PartIDs = append(rec.PartIDs, id)
		}
	} else if t.httpClient != nil && asset.DownloadURL != "" {
		file, err := t.download(ctx, workDir, asset)
		if err != nil {
			return err
		}
		rec.FileName = file.name
		rec.FileSize = file.size
		rec.Checksum = file.checksum
	}

	switch class {
	case core.NewBinary, core.NewCompound:
		rec.ID = uuid.New().String()
		if err := db.Create(rec).Error; err != nil {
			return fmt.Errorf("create asset %s: %w", asset.ID, err)
		}
	default:
		if asset.TargetID == "" {
			return fmt.Errorf("update asset %s: missing target ID", asset.ID)
		}
		rec.ID = asset.TargetID
		if err := db.Omit("created_at").Save(rec).Error; err != nil {
			return fmt.Errorf("update asset %s: %w", asset.ID, err)
		}
	}
	asset.TargetID = rec.ID
	return nil
}

// HandleAuthenticationError logs and records the failure.
func (t *GormTarget) HandleAuthenticationError(ctx context.Context, err *core.AuthenticationError) {
	t.Hooks.HandleAuthenticationError(ctx, err)
	t.setLastError(err)
}

// HandlePipelineError logs and records the failure.
func (t *GormTarget) HandlePipelineError(ctx context.Context, err *core.PipelineError) {
	t.Hooks.HandlePipelineError(ctx, err)
	t.setLastError(err)
}

func (t *GormTarget) setLastError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastErr = err
}

// LastError returns the last error routed to the target.
func (t *GormTarget) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Assets returns the stored assets ordered by creation.
func (t *GormTarget) Assets(ctx context.Context) ([]AssetRecord, error) {
	var recs []AssetRecord
	err := t.db.WithContext(ctx).Order("created_at ASC, source_id ASC, binary_id ASC").Find(&recs).Error
	return recs, err
}

// Metadata returns the stored elements of category.
func (t *GormTarget) Metadata(ctx context.Context, category core.MetadataCategory) ([]MetadataRecord, error) {
	var recs []MetadataRecord
	err := t.db.WithContext(ctx).Where("category = ?", string(category)).Order("element_key ASC").Find(&recs).Error
	return recs, err
}

// recordBinaryID is empty for compound assets.
func recordBinaryID(asset *core.TargetAsset) string {
	if asset.Kind == core.KindCompound {
		return ""
	}
	return asset.BinaryID
}

func toRecord(a *core.TargetAsset) *AssetRecord {
	rec := &AssetRecord{
		SourceID:            a.ID,
		BinaryID:            recordBinaryID(a),
		Kind:                a.Kind.String(),
		ContentProvider:     a.ContentProvider,
		ContentType:         a.ContentType,
		ContentCategory:     a.ContentCategory,
		BinaryType:          a.BinaryType,
		LicenseType:         a.LicenseType,
		Name:                a.Name,
		Keywords:            a.Keywords,
		IsEditorialUse:      a.IsEditorialUse,
		HasRestrictiveTerms: a.HasRestrictiveTerms,
		BinaryVersion:       a.BinaryVersion,
		DownloadURL:         a.DownloadURL,
		CatalogURL:          a.CatalogURL,
	}
	if a.DownloadConstraints != nil {
		rec.MaxReuses = a.DownloadConstraints.MaxReuses
	}
	return rec
}
