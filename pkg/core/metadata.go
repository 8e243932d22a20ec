package core

// MetadataCategory names one kind of generic metadata.
type MetadataCategory string

const (
	ContentProviders     MetadataCategory = "content_providers"
	ContentTypes         MetadataCategory = "content_types"
	BinaryTypes          MetadataCategory = "binary_types"
	ContentCategories    MetadataCategory = "content_categories"
	LicenseTypes         MetadataCategory = "license_types"
	ReleaseStates        MetadataCategory = "release_states"
	LicenseExclusivities MetadataCategory = "license_exclusivities"
	LicenseUsages        MetadataCategory = "license_usages"
	LicenseSizes         MetadataCategory = "license_sizes"
	LicensePlacements    MetadataCategory = "license_placements"
	LicenseDistributions MetadataCategory = "license_distributions"
	LicenseGeographies   MetadataCategory = "license_geographies"
	LicenseIndustries    MetadataCategory = "license_industries"
	LicenseLanguages     MetadataCategory = "license_languages"
	LicenseUsageLimits   MetadataCategory = "license_usage_limits"
)

// MetadataCategories lists all categories in import order.
var MetadataCategories = []MetadataCategory{
	ContentProviders,
	ContentTypes,
	BinaryTypes,
	ContentCategories,
	LicenseTypes,
	ReleaseStates,
	LicenseExclusivities,
	LicenseUsages,
	LicenseSizes,
	LicensePlacements,
	LicenseDistributions,
	LicenseGeographies,
	LicenseIndustries,
	LicenseLanguages,
	LicenseUsageLimits,
}

// MetadataElement is one localized metadata entry identified by its catalog key.
type MetadataElement struct {
	Key    string
	Values Translated
}

// GenericMetadata holds every metadata category fetched from the catalog.
type GenericMetadata struct {
	Categories map[MetadataCategory][]MetadataElement
}

// NewGenericMetadata returns an empty metadata set.
func NewGenericMetadata() *GenericMetadata {
	return &GenericMetadata{Categories: make(map[MetadataCategory][]MetadataElement)}
}

// Elements returns the elements of category, or nil.
func (m *GenericMetadata) Elements(category MetadataCategory) []MetadataElement {
	if m == nil {
		return nil
	}
	return m.Categories[category]
}

// Len returns the total number of elements across categories.
func (m *GenericMetadata) Len() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, elems := range m.Categories {
		n += len(elems)
	}
	return n
}
