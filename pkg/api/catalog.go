package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// FetchMetadata fetches all generic metadata categories, filtered to the
// import languages.
func (c *Client) FetchMetadata(ctx context.Context) (*core.GenericMetadata, error) {
	settings, err := c.settings.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	c.logger.Info("receiving generic metadata from catalog")

	var resp genericMetadataResponse
	endpoint := c.baseURL(settings.TenantID) + "/generic-metadata-for-sync"
	err = c.retry(ctx, "fetch_metadata", func(ctx context.Context) error {
		return c.getJSON(ctx, endpoint, &resp)
	})
	if err != nil {
		return nil, err
	}

	languages := settings.ImportLanguages
	meta := core.NewGenericMetadata()
	for category, elems := range map[core.MetadataCategory][]localizedMetadataElement{
		core.ContentProviders:     resp.Providers,
		core.ContentTypes:         resp.ContentTypes,
		core.BinaryTypes:          resp.BinaryTypes,
		core.ContentCategories:    resp.ContentCategories,
		core.LicenseTypes:         resp.LicenseTypes,
		core.ReleaseStates:        resp.ReleaseStates,
		core.LicenseExclusivities: resp.LicenseExclusivities,
		core.LicenseUsages:        resp.LicenseUsages,
		core.LicenseSizes:         resp.LicenseSizes,
		core.LicensePlacements:    resp.LicensePlacements,
		core.LicenseDistributions: resp.LicenseDistributions,
		core.LicenseGeographies:   resp.LicenseGeographies,
		core.LicenseIndustries:    resp.LicenseIndustries,
		core.LicenseLanguages:     resp.LicenseLanguages,
		core.LicenseUsageLimits:   resp.LicenseUsageLimits,
	} {
		meta.Categories[category] = localizeMetadata(languages, elems)
	}

	c.logger.Info("received generic metadata from catalog", "elements", meta.Len())
	return meta, nil
}

// FetchAssetPage fetches the page of license purchase transactions that
// follows token. Transactions that cannot be synced are dropped, so a page
// may be empty while Next.HasMore is still true.
func (c *Client) FetchAssetPage(ctx context.Context, token string) (*core.AssetPage, error) {
	settings, err := c.settings.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	c.logger.Info("receiving assets from catalog", "continuation", token)

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.config.PageSize))
	if token != "" {
		query.Set("continuation_uuid", token)
	}
	base := c.baseURL(settings.TenantID)
	endpoint := base + "/license-purchase-transactions-for-sync?" + query.Encode()

	var resp licensePurchaseTransactionPage
	err = c.retry(ctx, "fetch_assets", func(ctx context.Context) error {
		resp = licensePurchaseTransactionPage{}
		return c.getJSON(ctx, endpoint, &resp)
	})
	if err != nil {
		return nil, err
	}

	page := &core.AssetPage{
		Next: core.Cursor{
			Token:   resp.ContinuationUUID,
			HasMore: resp.Count > 0,
		},
	}
	if resp.Count == 0 {
		c.logger.Info("received 0 assets from catalog")
		return page, nil
	}

	for i := range resp.LicensePurchaseTransactions {
		lpt := &resp.LicensePurchaseTransactions[i]
		if lpt.CanBeSynced == nil || !*lpt.CanBeSynced {
			c.logger.Debug("skipping transaction that cannot be synced", "transaction", lpt.UUID)
			continue
		}

		asset := c.toRawAsset(settings, lpt)

		binariesURL := fmt.Sprintf("%s/cart-purchase-transactions/%s/license-purchase-transactions/%s/binaries-for-sync",
			base, url.PathEscape(lpt.CartPurchaseTransactionUUID), url.PathEscape(lpt.UUID))
		var binaries []binary
		err := c.retry(ctx, "fetch_binaries", func(ctx context.Context) error {
			binaries = nil
			return c.getJSON(ctx, binariesURL, &binaries)
		})
		if err != nil {
			return nil, err
		}
		asset.Binaries = toBinaries(settings.ImportLanguages, binaries)

		page.Assets = append(page.Assets, asset)
	}

	c.logger.Info("received assets from catalog", "count", len(page.Assets), "raw_count", resp.Count)
	return page, nil
}

func (c *Client) toRawAsset(settings *core.Settings, lpt *licensePurchaseTransaction) *core.RawAsset {
	languages := settings.ImportLanguages
	ce := &lpt.ContentElement

	createdAt := time.Now()
	if lpt.CreatedAt != nil {
		createdAt = *lpt.CreatedAt
	}
	lastUpdatedAt := createdAt
	if lpt.LastUpdatedAt != nil {
		lastUpdatedAt = *lpt.LastUpdatedAt
	}

	asset := &core.RawAsset{
		ID:                        lpt.UUID,
		ContentElementID:          ce.UUID,
		CartPurchaseTransactionID: lpt.CartPurchaseTransactionUUID,
		State:                     lpt.State,
		Provider:                  ce.Provider,
		ContentType:               ce.ContentType,
		Category:                  ce.ContentCategory,
		Name:                      localizeStrings(languages, ce.Name),
		Description:               localizeStrings(languages, ce.Description),
		Keywords:                  localizeGrouped(languages, ce.Keywords, false),
		CopyrightNotices:          localizeStrings(languages, ce.CopyrightNotices),
		ProjectID:                 lpt.ProjectUUID,
		ProjectName:               localizeStrings(languages, lpt.ProjectName),
		CollectionID:              lpt.CollectionUUID,
		CollectionName:            localizeStrings(languages, lpt.CollectionName),
		LicenseeID:                lpt.LicenseeUUID,
		LicenseeName:              lpt.LicenseeName,
		LicenseType:               lpt.Offering.LicenseType,
		LicenseText:               localizeStrings(languages, lpt.LicenseText.EffectiveText),
		LicenseURLs:               localizeGrouped(languages, lpt.Offering.LicenseURLs, true),
		LicenseTerms:              toLicenseTerms(languages, lpt.LicenseTerms),
		IsEditorialUse:            editorialUse(lpt.LicenseTerms),
		CatalogURL:                c.portalURL(settings.TenantID, lpt.ProjectUUID, ce.UUID),
		PurchasedAt:               lpt.PurchasedAt,
		CreatedAt:                 createdAt,
		LastUpdatedAt:             lastUpdatedAt,
	}
	if lpt.HasPotentiallyRestrictiveLicenseTerm != nil {
		asset.HasRestrictiveLicenseTerms = *lpt.HasPotentiallyRestrictiveLicenseTerm
	}
	if rd := ce.ReleaseDetails; rd != nil {
		asset.ReleaseDetails = &core.ReleaseDetails{
			ModelReleaseState:         rd.ModelReleaseState,
			PropertyReleaseState:      rd.PropertyReleaseState,
			ProviderAllowedUseComment: localizeStrings(languages, rd.ProviderAllowedUseComment),
			ProviderReleaseComment:    localizeStrings(languages, rd.ProviderReleaseComment),
			ProviderUsageConstraints:  localizeStrings(languages, rd.ProviderUsageConstraints),
		}
	}
	if dc := lpt.LicenseDownloadConstraints; dc != nil {
		asset.DownloadConstraints = &core.DownloadConstraints{
			MaxDownloads: dc.EffectiveMaxDownloads,
			MaxUsers:     dc.EffectiveMaxUsers,
			MaxReuses:    dc.EffectiveMaxReuses,
		}
	}
	return asset
}

// editorialUse aggregates the terms: any true wins, otherwise any false,
// otherwise unknown.
func editorialUse(terms []licenseTerm) *bool {
	var result *bool
	for _, t := range terms {
		if t.IsEditorialUse == nil {
			continue
		}
		if *t.IsEditorialUse {
			v := true
			return &v
		}
		if result == nil {
			v := false
			result = &v
		}
	}
	return result
}

func toLicenseTerms(languages []string, terms []licenseTerm) []core.LicenseTerm {
	if len(terms) == 0 {
		return nil
	}
	out := make([]core.LicenseTerm, 0, len(terms))
	for _, t := range terms {
		out = append(out, core.LicenseTerm{
			SequenceNumber:          t.SequenceNumber,
			Name:                    localizeStrings(languages, t.Name),
			Exclusivities:           t.Exclusivities,
			AllowedUsages:           t.AllowedUsages,
			RestrictedUsages:        t.RestrictedUsages,
			AllowedSizes:            t.AllowedSizes,
			RestrictedSizes:         t.RestrictedSizes,
			AllowedPlacements:       t.AllowedPlacements,
			RestrictedPlacements:    t.RestrictedPlacements,
			AllowedDistributions:    t.AllowedDistributions,
			RestrictedDistributions: t.RestrictedDistributions,
			AllowedGeographies:      t.AllowedGeographies,
			RestrictedGeographies:   t.RestrictedGeographies,
			AllowedIndustries:       t.AllowedIndustries,
			RestrictedIndustries:    t.RestrictedIndustries,
			AllowedLanguages:        t.AllowedLanguages,
			RestrictedLanguages:     t.RestrictedLanguages,
			UsageLimits:             t.UsageLimits,
			ValidFrom:               t.ValidFrom,
			ValidUntil:              t.ValidUntil,
			ToBeUsedUntil:           t.ToBeUsedUntil,
			IsEditorialUse:          t.IsEditorialUse,
		})
	}
	return out
}

func toBinaries(languages []string, in []binary) []core.Binary {
	out := make([]core.Binary, 0, len(in))
	for _, b := range in {
		version := 1
		if b.Version != nil {
			version = *b.Version
		}
		out = append(out, core.Binary{
			ID:                  b.UUID,
			ContentType:         b.ContentType,
			BinaryType:          b.BinaryType,
			Name:                localizeStrings(languages, b.Name),
			Description:         localizeStrings(languages, b.Description),
			Usage:               localizeStrings(languages, b.Usage),
			DownloadURL:         b.DownloadURL,
			RecommendedFileName: b.RecommendedFileName,
			Culture:             b.Culture,
			Version:             version,
		})
	}
	return out
}
