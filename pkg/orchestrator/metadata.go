package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// syncMetadata imports every metadata category and fills the key cache.
// It reports false when the target skipped the metadata stage.
func (o *Orchestrator) syncMetadata(ctx context.Context, logger *slog.Logger, record *core.SyncRun) (bool, error) {
	ok, err := o.target.BeforeGenericMetadataSync(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		logger.Info("generic metadata sync skipped by target")
		return false, nil
	}

	o.cache.Clear()

	meta, err := o.catalog.FetchMetadata(ctx)
	if err != nil {
		return false, err
	}

	for _, category := range core.MetadataCategories {
		elems := meta.Elements(category)
		ids, err := o.target.ImportMetadata(ctx, category, elems)
		if err != nil {
			return false, err
		}
		if err := checkMappings(category, elems, ids); err != nil {
			return false, err
		}
		o.cache.Put(category, ids)
		logger.Debug("imported metadata category", "category", string(category), "elements", len(elems))
	}
	record.MetadataElements = meta.Len()

	if err := o.target.AfterGenericMetadataSync(ctx); err != nil {
		return false, err
	}
	logger.Info("generic metadata imported", "elements", record.MetadataElements)
	return true, nil
}

// checkMappings requires a target ID for every imported element.
func checkMappings(category core.MetadataCategory, elems []core.MetadataElement, ids map[string]string) error {
	for _, elem := range elems {
		if ids[elem.Key] == "" {
			return core.NewPipelineError(core.KindClassification,
				fmt.Errorf("%w: target returned no ID for %s key %q", core.ErrMissingKeyMapping, category, elem.Key))
		}
	}
	return nil
}
