package assetsync

import "github.com/jdziat/simple-asset-sync/pkg/core"

// Error types
type (
	// ConfigurationError reports a missing or invalid setting.
	ConfigurationError = core.ConfigurationError

	// AuthenticationError reports that no valid access token could be obtained.
	AuthenticationError = core.AuthenticationError

	// PipelineError reports a failed run stage.
	PipelineError = core.PipelineError

	// PipelineKind classifies a PipelineError.
	PipelineKind = core.PipelineKind

	// APIError is a non-success catalog response.
	APIError = core.APIError

	// TargetDeliveryError reports a failed target call.
	TargetDeliveryError = core.TargetDeliveryError
)

// Pipeline error kinds
const (
	KindGeneric        = core.KindGeneric
	KindConfiguration  = core.KindConfiguration
	KindCapability     = core.KindCapability
	KindClassification = core.KindClassification
	KindTransport      = core.KindTransport
	KindDelivery       = core.KindDelivery
)

// Error variables
var (
	ErrMissingTenantID     = core.ErrMissingTenantID
	ErrMissingLanguages    = core.ErrMissingLanguages
	ErrMissingChannelID    = core.ErrMissingChannelID
	ErrMissingKeyMapping   = core.ErrMissingKeyMapping
	ErrCapabilityMissing   = core.ErrCapabilityMissing
	ErrRetriesExhausted    = core.ErrRetriesExhausted
	ErrResponseTooLarge    = core.ErrResponseTooLarge
	ErrMissingAccessToken  = core.ErrMissingAccessToken
	ErrMissingRefreshToken = core.ErrMissingRefreshToken
)

// AsPipelineError classifies err the way failed runs are routed.
func AsPipelineError(err error) (*PipelineError, *AuthenticationError) {
	return core.AsPipelineError(err)
}
