package core

import "time"

// Translated maps a culture (e.g. "en", "de") to a localized value.
type Translated map[string]string

// TranslatedList maps a culture to a list of localized values.
type TranslatedList map[string][]string

// Binary is one downloadable file of a licensed asset.
type Binary struct {
	ID                  string
	ContentType         string
	BinaryType          string
	Name                Translated
	Description         Translated
	Usage               Translated
	DownloadURL         string
	RecommendedFileName string
	Culture             string
	Version             int
}

// LicenseTerm is one set of license restrictions. Slice fields hold
// metadata keys of the matching license categories.
type LicenseTerm struct {
	SequenceNumber          int
	Name                    Translated
	Exclusivities           []string
	AllowedUsages           []string
	RestrictedUsages        []string
	AllowedSizes            []string
	RestrictedSizes         []string
	AllowedPlacements       []string
	RestrictedPlacements    []string
	AllowedDistributions    []string
	RestrictedDistributions []string
	AllowedGeographies      []string
	RestrictedGeographies   []string
	AllowedIndustries       []string
	RestrictedIndustries    []string
	AllowedLanguages        []string
	RestrictedLanguages     []string
	UsageLimits             []string
	ValidFrom               *time.Time
	ValidUntil              *time.Time
	ToBeUsedUntil           *time.Time
	IsEditorialUse          *bool
}

// ReleaseDetails describes model and property releases.
type ReleaseDetails struct {
	ModelReleaseState         string
	PropertyReleaseState      string
	ProviderAllowedUseComment Translated
	ProviderReleaseComment    Translated
	ProviderUsageConstraints  Translated
}

// DownloadConstraints limits how often an asset may be downloaded or reused.
type DownloadConstraints struct {
	MaxDownloads *int
	MaxUsers     *int
	MaxReuses    *int
}

// RawAsset is a licensed asset as received from the catalog.
type RawAsset struct {
	ID                         string // license purchase transaction
	ContentElementID           string
	CartPurchaseTransactionID  string
	State                      string
	Provider                   string
	ContentType                string
	Category                   string
	Name                       Translated
	Description                Translated
	Keywords                   TranslatedList
	CopyrightNotices           Translated
	ProjectID                  string
	ProjectName                Translated
	CollectionID               string
	CollectionName             Translated
	LicenseeID                 string
	LicenseeName               string
	LicenseType                string
	LicenseText                Translated
	LicenseURLs                TranslatedList
	LicenseTerms               []LicenseTerm
	DownloadConstraints        *DownloadConstraints
	ReleaseDetails             *ReleaseDetails
	IsEditorialUse             *bool
	HasRestrictiveLicenseTerms bool
	CatalogURL                 string
	PurchasedAt                *time.Time
	CreatedAt                  time.Time
	LastUpdatedAt              time.Time
	Binaries                   []Binary
}

// AssetPage is one page of the asset feed.
type AssetPage struct {
	Assets []*RawAsset
	Next   Cursor
}

// AssetKind tags a TargetAsset as a per-binary or a compound representation.
type AssetKind int

const (
	KindBinary AssetKind = iota
	KindCompound
)

func (k AssetKind) String() string {
	if k == KindCompound {
		return "compound"
	}
	return "binary"
}

// TargetAsset is the transformed representation delivered to a SyncTarget.
// Key-valued fields hold target identifiers when generic metadata was
// imported during the run, and catalog keys otherwise.
type TargetAsset struct {
	Kind AssetKind

	// ID identifies the source transaction; TargetID is set when the target
	// already knows the asset.
	ID       string
	TargetID string

	ContentElementID          string
	CartPurchaseTransactionID string
	State                     string
	ContentProvider           string
	ContentType               string
	ContentCategory           string
	Name                      Translated
	Description               Translated
	Keywords                  TranslatedList
	CopyrightNotices          Translated
	ProjectID                 string
	ProjectName               Translated
	CollectionID              string
	CollectionName            Translated
	LicenseeID                string
	LicenseeName              string
	LicenseType               string
	LicenseText               Translated
	LicenseURLs               TranslatedList
	LicenseTerms              []LicenseTerm
	DownloadConstraints       *DownloadConstraints
	ReleaseDetails            *ReleaseDetails
	IsEditorialUse            bool
	HasRestrictiveTerms       bool
	CatalogURL                string
	PurchasedAt               *time.Time
	CreatedAt                 time.Time
	LastUpdatedAt             time.Time

	// Binary fields are empty on compound assets.
	BinaryID            string
	BinaryType          string
	BinaryCulture       string
	BinaryVersion       int
	BinaryUsage         Translated
	DownloadURL         string
	RecommendedFileName string

	// Parts holds the binary representations aggregated by a compound asset.
	Parts []*TargetAsset
}

// IsCompound reports whether the asset aggregates more than one binary.
func (a *TargetAsset) IsCompound() bool {
	return a.Kind == KindCompound && len(a.Parts) > 1
}

// WorldwideUniqueBinaryID identifies a binary across all transactions.
func (a *TargetAsset) WorldwideUniqueBinaryID() string {
	return a.ID + "_" + a.BinaryID
}

// Classification is the delivery bucket of a transformed asset.
type Classification int

const (
	NewBinary Classification = iota
	UpdatedBinary
	NewCompound
	UpdatedCompound
)

func (c Classification) String() string {
	switch c {
	case NewBinary:
		return "new_binary"
	case UpdatedBinary:
		return "updated_binary"
	case NewCompound:
		return "new_compound"
	case UpdatedCompound:
		return "updated_compound"
	default:
		return "unknown"
	}
}

// Classify picks the bucket for an asset given whether the target knows it.
func Classify(asset *TargetAsset, exists bool) Classification {
	switch {
	case asset.Kind == KindCompound && exists:
		return UpdatedCompound
	case asset.Kind == KindCompound:
		return NewCompound
	case exists:
		return UpdatedBinary
	default:
		return NewBinary
	}
}

// Batch holds the classified assets of one page.
type Batch struct {
	NewBinaries      []*TargetAsset
	UpdatedBinaries  []*TargetAsset
	NewCompounds     []*TargetAsset
	UpdatedCompounds []*TargetAsset
}

// Add appends asset to the bucket for c.
func (b *Batch) Add(c Classification, asset *TargetAsset) {
	switch c {
	case NewBinary:
		b.NewBinaries = append(b.NewBinaries, asset)
	case UpdatedBinary:
		b.UpdatedBinaries = append(b.UpdatedBinaries, asset)
	case NewCompound:
		b.NewCompounds = append(b.NewCompounds, asset)
	case UpdatedCompound:
		b.UpdatedCompounds = append(b.UpdatedCompounds, asset)
	}
}

// Len returns the number of classified assets.
func (b *Batch) Len() int {
	return len(b.NewBinaries) + len(b.UpdatedBinaries) + len(b.NewCompounds) + len(b.UpdatedCompounds)
}
