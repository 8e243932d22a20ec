package orchestrator

import (
	"fmt"

	"github.com/jdziat/simple-asset-sync/pkg/core"
	"github.com/jdziat/simple-asset-sync/pkg/target"
)

// keyLookup asks the target for a key the cache does not hold.
type keyLookup func(category core.MetadataCategory, key string) (string, bool, error)

// resolver maps catalog keys to target IDs. A nil cache passes keys
// through unchanged. Cache misses go to lookup when set, and answers are
// added to the cache. The first failure is kept in err.
type resolver struct {
	cache  *KeyCache
	lookup keyLookup
	err    error
}

func (r *resolver) key(category core.MetadataCategory, key string) string {
	if r.cache == nil || r.err != nil || key == "" {
		return key
	}
	if id, ok := r.cache.Lookup(category, key); ok {
		return id
	}
	if r.lookup == nil {
		r.err = missingKey(category, key)
		return key
	}

	id, ok, err := r.lookup(category, key)
	switch {
	case err != nil:
		r.err = &core.TargetDeliveryError{Operation: "resolve_metadata_key", Err: err}
	case !ok || id == "":
		r.err = missingKey(category, key)
	default:
		r.cache.Add(category, key, id)
		return id
	}
	return key
}

func (r *resolver) keys(category core.MetadataCategory, keys []string) []string {
	if r.cache == nil || len(keys) == 0 {
		return keys
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = r.key(category, k)
	}
	return out
}

// checkCapabilities rejects assets the target cannot represent.
func checkCapabilities(raw *core.RawAsset, caps target.Capabilities) error {
	if len(raw.Binaries) > 1 && !caps.Has(target.CompoundAssets) {
		return core.NewPipelineError(core.KindCapability,
			fmt.Errorf("%w: compound_assets for asset %s with %d binaries", core.ErrCapabilityMissing, raw.ID, len(raw.Binaries)))
	}
	if !caps.Has(target.BinaryUpdates) {
		for _, b := range raw.Binaries {
			if b.Version > 1 {
				return core.NewPipelineError(core.KindCapability,
					fmt.Errorf("%w: binary_updates for binary %s version %d", core.ErrCapabilityMissing, b.ID, b.Version))
			}
		}
	}
	return nil
}

// transform turns raw into one target asset per binary, followed by a
// compound asset when raw has more than one binary.
func transform(raw *core.RawAsset, caps target.Capabilities, cache *KeyCache, lookup keyLookup) ([]*core.TargetAsset, error) {
	if err := checkCapabilities(raw, caps); err != nil {
		return nil, err
	}

	r := &resolver{cache: cache, lookup: lookup}
	base := baseAsset(raw, caps, r)
	if r.err != nil {
		return nil, r.err
	}

	out := make([]*core.TargetAsset, 0, len(raw.Binaries)+1)
	for _, b := range raw.Binaries {
		asset := *base
		asset.Kind = core.KindBinary
		asset.BinaryID = b.ID
		asset.BinaryType = r.key(core.BinaryTypes, b.BinaryType)
		asset.BinaryCulture = b.Culture
		asset.BinaryVersion = b.Version
		asset.BinaryUsage = b.Usage
		asset.DownloadURL = b.DownloadURL
		asset.RecommendedFileName = b.RecommendedFileName
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, &asset)
	}

	if len(out) > 1 {
		compound := *base
		compound.Kind = core.KindCompound
		compound.Parts = append([]*core.TargetAsset(nil), out...)
		out = append(out, &compound)
	}
	return out, nil
}

func baseAsset(raw *core.RawAsset, caps target.Capabilities, r *resolver) *core.TargetAsset {
	asset := &core.TargetAsset{
		ID:                        raw.ID,
		ContentElementID:          raw.ContentElementID,
		CartPurchaseTransactionID: raw.CartPurchaseTransactionID,
		State:                     raw.State,
		ContentProvider:           r.key(core.ContentProviders, raw.Provider),
		ContentType:               r.key(core.ContentTypes, raw.ContentType),
		ContentCategory:           r.key(core.ContentCategories, raw.Category),
		Name:                      raw.Name,
		Description:               raw.Description,
		Keywords:                  raw.Keywords,
		CopyrightNotices:          raw.CopyrightNotices,
		ProjectID:                 raw.ProjectID,
		ProjectName:               raw.ProjectName,
		CollectionID:              raw.CollectionID,
		CollectionName:            raw.CollectionName,
		LicenseeID:                raw.LicenseeID,
		LicenseeName:              raw.LicenseeName,
		LicenseType:               r.key(core.LicenseTypes, raw.LicenseType),
		LicenseText:               raw.LicenseText,
		LicenseURLs:               raw.LicenseURLs,
		IsEditorialUse:            raw.IsEditorialUse != nil && *raw.IsEditorialUse,
		HasRestrictiveTerms:       raw.HasRestrictiveLicenseTerms,
		CatalogURL:                raw.CatalogURL,
		PurchasedAt:               raw.PurchasedAt,
		CreatedAt:                 raw.CreatedAt,
		LastUpdatedAt:             raw.LastUpdatedAt,
	}

	if len(raw.LicenseTerms) > 0 {
		asset.LicenseTerms = make([]core.LicenseTerm, len(raw.LicenseTerms))
		for i, term := range raw.LicenseTerms {
			asset.LicenseTerms[i] = resolveTerm(term, r)
		}
	}

	if rd := raw.ReleaseDetails; rd != nil {
		details := *rd
		details.ModelReleaseState = r.key(core.ReleaseStates, rd.ModelReleaseState)
		details.PropertyReleaseState = r.key(core.ReleaseStates, rd.PropertyReleaseState)
		asset.ReleaseDetails = &details
	}

	if dc := raw.DownloadConstraints; dc != nil {
		constraints := *dc
		if !caps.Has(target.ReuseHandling) {
			constraints.MaxReuses = nil
		}
		asset.DownloadConstraints = &constraints
	}
	return asset
}

func resolveTerm(term core.LicenseTerm, r *resolver) core.LicenseTerm {
	term.Exclusivities = r.keys(core.LicenseExclusivities, term.Exclusivities)
	term.AllowedUsages = r.keys(core.LicenseUsages, term.AllowedUsages)
	term.RestrictedUsages = r.keys(core.LicenseUsages, term.RestrictedUsages)
	term.AllowedSizes = r.keys(core.LicenseSizes, term.AllowedSizes)
	term.RestrictedSizes = r.keys(core.LicenseSizes, term.RestrictedSizes)
	term.AllowedPlacements = r.keys(core.LicensePlacements, term.AllowedPlacements)
	term.RestrictedPlacements = r.keys(core.LicensePlacements, term.RestrictedPlacements)
	term.AllowedDistributions = r.keys(core.LicenseDistributions, term.AllowedDistributions)
	term.RestrictedDistributions = r.keys(core.LicenseDistributions, term.RestrictedDistributions)
	term.AllowedGeographies = r.keys(core.LicenseGeographies, term.AllowedGeographies)
	term.RestrictedGeographies = r.keys(core.LicenseGeographies, term.RestrictedGeographies)
	term.AllowedIndustries = r.keys(core.LicenseIndustries, term.AllowedIndustries)
	term.RestrictedIndustries = r.keys(core.LicenseIndustries, term.RestrictedIndustries)
	term.AllowedLanguages = r.keys(core.LicenseLanguages, term.AllowedLanguages)
	term.RestrictedLanguages = r.keys(core.LicenseLanguages, term.RestrictedLanguages)
	term.UsageLimits = r.keys(core.LicenseUsageLimits, term.UsageLimits)
	return term
}
