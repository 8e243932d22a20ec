package api

import "time"

// Wire types of the catalog consumer API. Field names follow the API's
// snake_case JSON.

type localizedString struct {
	Culture string `json:"culture"`
	Value   string `json:"value"`
}

type metadataElement struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type localizedMetadataElement struct {
	Culture         string          `json:"culture"`
	MetadataElement metadataElement `json:"metadata_element"`
}

type genericMetadataResponse struct {
	Providers            []localizedMetadataElement `json:"providers"`
	ContentTypes         []localizedMetadataElement `json:"content_types"`
	BinaryTypes          []localizedMetadataElement `json:"binary_types"`
	ContentCategories    []localizedMetadataElement `json:"content_categories"`
	LicenseTypes         []localizedMetadataElement `json:"license_types"`
	ReleaseStates        []localizedMetadataElement `json:"release_states"`
	LicenseExclusivities []localizedMetadataElement `json:"license_exclusivities"`
	LicenseUsages        []localizedMetadataElement `json:"license_usages"`
	LicenseSizes         []localizedMetadataElement `json:"license_sizes"`
	LicensePlacements    []localizedMetadataElement `json:"license_placements"`
	LicenseDistributions []localizedMetadataElement `json:"license_distributions"`
	LicenseGeographies   []localizedMetadataElement `json:"license_geographies"`
	LicenseIndustries    []localizedMetadataElement `json:"license_industries"`
	LicenseLanguages     []localizedMetadataElement `json:"license_languages"`
	LicenseUsageLimits   []localizedMetadataElement `json:"license_usage_limits"`
}

type releaseDetails struct {
	ModelReleaseState         string            `json:"model_release_state"`
	PropertyReleaseState      string            `json:"property_release_state"`
	ProviderAllowedUseComment []localizedString `json:"provider_allowed_use_comment"`
	ProviderReleaseComment    []localizedString `json:"provider_release_comment"`
	ProviderUsageConstraints  []localizedString `json:"provider_usage_constraints"`
}

type contentElement struct {
	UUID             string                     `json:"uuid"`
	Provider         string                     `json:"provider"`
	ContentType      string                     `json:"content_type"`
	ContentCategory  string                     `json:"content_category"`
	Name             []localizedString          `json:"name"`
	Description      []localizedString          `json:"description"`
	Keywords         []localizedMetadataElement `json:"keywords"`
	CopyrightNotices []localizedString          `json:"copyright_notices"`
	ReleaseDetails   *releaseDetails            `json:"release_details"`
}

type offering struct {
	LicenseType string                     `json:"license_type"`
	LicenseURLs []localizedMetadataElement `json:"license_urls"`
}

type licenseText struct {
	EffectiveText []localizedString `json:"effective_text"`
}

type licenseTerm struct {
	SequenceNumber          int               `json:"sequence_number"`
	Name                    []localizedString `json:"name"`
	Exclusivities           []string          `json:"exclusivities"`
	AllowedUsages           []string          `json:"allowed_usages"`
	RestrictedUsages        []string          `json:"restricted_usages"`
	AllowedSizes            []string          `json:"allowed_sizes"`
	RestrictedSizes         []string          `json:"restricted_sizes"`
	AllowedPlacements       []string          `json:"allowed_placements"`
	RestrictedPlacements    []string          `json:"restricted_placements"`
	AllowedDistributions    []string          `json:"allowed_distributions"`
	RestrictedDistributions []string          `json:"restricted_distributions"`
	AllowedGeographies      []string          `json:"allowed_geographies"`
	RestrictedGeographies   []string          `json:"restricted_geographies"`
	AllowedIndustries       []string          `json:"allowed_industries"`
	RestrictedIndustries    []string          `json:"restricted_industries"`
	AllowedLanguages        []string          `json:"allowed_languages"`
	RestrictedLanguages     []string          `json:"restricted_languages"`
	UsageLimits             []string          `json:"usage_limits"`
	ValidFrom               *time.Time        `json:"valid_from"`
	ValidUntil              *time.Time        `json:"valid_until"`
	ToBeUsedUntil           *time.Time        `json:"to_be_used_until"`
	IsEditorialUse          *bool             `json:"is_editorial_use"`
}

type downloadConstraints struct {
	EffectiveMaxDownloads *int `json:"effective_max_downloads"`
	EffectiveMaxUsers     *int `json:"effective_max_users"`
	EffectiveMaxReuses    *int `json:"effective_max_reuses"`
}

type licensePurchaseTransaction struct {
	UUID                                 string               `json:"uuid"`
	CartPurchaseTransactionUUID          string               `json:"cart_purchase_transaction_uuid"`
	State                                string               `json:"state"`
	ContentElement                       contentElement       `json:"content_element"`
	ProjectUUID                          string               `json:"project_uuid"`
	ProjectName                          []localizedString    `json:"project_name"`
	CollectionUUID                       string               `json:"collection_uuid"`
	CollectionName                       []localizedString    `json:"collection_name"`
	LicenseeUUID                         string               `json:"licensee_uuid"`
	LicenseeName                         string               `json:"licensee_name"`
	Offering                             offering             `json:"offering"`
	LicenseText                          licenseText          `json:"license_text"`
	LicenseTerms                         []licenseTerm        `json:"license_terms"`
	LicenseDownloadConstraints           *downloadConstraints `json:"license_download_constraints"`
	HasPotentiallyRestrictiveLicenseTerm *bool                `json:"has_potentially_restrictive_license_terms"`
	CanBeSynced                          *bool                `json:"can_be_synced"`
	PurchasedAt                          *time.Time           `json:"purchased_at"`
	CreatedAt                            *time.Time           `json:"created_at"`
	LastUpdatedAt                        *time.Time           `json:"last_updated_at"`
}

type licensePurchaseTransactionPage struct {
	Count                       int                          `json:"count"`
	ContinuationUUID            string                       `json:"continuation_uuid"`
	LicensePurchaseTransactions []licensePurchaseTransaction `json:"license_purchase_transactions"`
}

type binary struct {
	UUID                string            `json:"uuid"`
	ContentType         string            `json:"content_type"`
	BinaryType          string            `json:"binary_type"`
	Name                []localizedString `json:"name"`
	Description         []localizedString `json:"description"`
	Usage               []localizedString `json:"usage"`
	DownloadURL         string            `json:"download_url"`
	RecommendedFileName string            `json:"recommended_file_name"`
	Culture             string            `json:"culture"`
	Version             *int              `json:"version"`
}
