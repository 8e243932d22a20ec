package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

// syncAssets walks the asset feed from the committed cursor until the
// catalog reports no more pages. Without imported metadata, keys are
// resolved through the target's stored metadata.
func (o *Orchestrator) syncAssets(ctx context.Context, logger *slog.Logger, record *core.SyncRun, workDir string, caps target.Capabilities, imported bool) error {
	cursor, err := o.cursors.GetCursor(ctx)
	if err != nil {
		return fmt.Errorf("read cursor: %w", err)
	}
	token := ""
	if cursor != nil {
		token = cursor.Token
	}

	var lookup keyLookup
	if !imported {
		lookup = func(category core.MetadataCategory, key string) (string, bool, error) {
			return o.target.ResolveMetadataKey(ctx, category, key)
		}
	}

	for {
		page, err := o.catalog.FetchAssetPage(ctx, token)
		if err != nil {
			return err
		}
		record.Pages++

		if len(page.Assets) > 0 {
			if err := o.importPage(ctx, logger, record, workDir, caps, lookup, page); err != nil {
				return err
			}
		} else {
			logger.Debug("asset page empty after filtering", "has_more", page.Next.HasMore)
		}

		token = page.Next.Token
		if !page.Next.HasMore {
			return nil
		}
	}
}

// importPage delivers one page and commits its cursor. The cursor is left
// untouched when any delivery fails.
func (o *Orchestrator) importPage(ctx context.Context, logger *slog.Logger, record *core.SyncRun, workDir string, caps target.Capabilities, lookup keyLookup, page *core.AssetPage) error {
	var assets []*core.TargetAsset
	for _, raw := range page.Assets {
		out, err := transform(raw, caps, o.cache, lookup)
		if err != nil {
			return err
		}
		assets = append(assets, out...)
	}

	batch, err := o.classify(ctx, assets)
	if err != nil {
		return err
	}

	if err := o.deliver(ctx, workDir, batch); err != nil {
		return err
	}

	if err := o.cursors.SetCursor(ctx, page.Next); err != nil {
		return fmt.Errorf("commit cursor: %w", err)
	}
	o.recorder.CursorCommitted()

	record.Assets += len(page.Assets)
	record.NewBinaries += len(batch.NewBinaries)
	record.UpdatedBinaries += len(batch.UpdatedBinaries)
	record.NewCompounds += len(batch.NewCompounds)
	record.UpdatedCompounds += len(batch.UpdatedCompounds)
	record.Cursor = page.Next.Token

	logger.Info("asset page committed",
		"assets", len(page.Assets),
		"new_binaries", len(batch.NewBinaries),
		"updated_binaries", len(batch.UpdatedBinaries),
		"new_compounds", len(batch.NewCompounds),
		"updated_compounds", len(batch.UpdatedCompounds),
		"has_more", page.Next.HasMore)
	o.Emit(&core.PageCommitted{RunID: record.ID, Cursor: page.Next, Assets: len(page.Assets), Timestamp: time.Now()})
	return nil
}

// classify asks the target for existing IDs and buckets the assets.
// Lookups run concurrently; bucket order follows page order.
func (o *Orchestrator) classify(ctx context.Context, assets []*core.TargetAsset) (*core.Batch, error) {
	type lookup struct {
		id     string
		exists bool
	}
	results := make([]lookup, len(assets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.lookupConcurrency)
	for i, asset := range assets {
		g.Go(func() error {
			id, exists, err := o.target.FindExisting(gctx, asset)
			if err != nil {
				return &core.TargetDeliveryError{Operation: "find_existing", Err: err}
			}
			results[i] = lookup{id: id, exists: exists}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &core.Batch{}
	for i, asset := range assets {
		if results[i].exists {
			asset.TargetID = results[i].id
		}
		batch.Add(core.Classify(asset, results[i].exists), asset)
	}
	return batch, nil
}

// deliver hands the four buckets to the target in fixed order.
func (o *Orchestrator) deliver(ctx context.Context, workDir string, batch *core.Batch) error {
	steps := []struct {
		class  core.Classification
		assets []*core.TargetAsset
		call   func(context.Context, string, []*core.TargetAsset) error
	}{
		{core.NewBinary, batch.NewBinaries, o.target.ImportNewBinaries},
		{core.UpdatedBinary, batch.UpdatedBinaries, o.target.UpdateBinaries},
		{core.NewCompound, batch.NewCompounds, o.target.ImportNewCompounds},
		{core.UpdatedCompound, batch.UpdatedCompounds, o.target.UpdateCompounds},
	}

	for _, step := range steps {
		if len(step.assets) == 0 {
			continue
		}
		if err := step.call(ctx, workDir, step.assets); err != nil {
			var deliveryErr *core.TargetDeliveryError
			if errors.As(err, &deliveryErr) {
				return err
			}
			return &core.TargetDeliveryError{Operation: step.class.String(), Err: err}
		}
		o.recorder.AssetsDelivered(step.class, len(step.assets))
	}
	return nil
}
