package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrMissingTenantID     = errors.New("assetsync: tenant ID is missing")
	ErrMissingLanguages    = errors.New("assetsync: import languages are missing")
	ErrMissingChannelID    = errors.New("assetsync: channel ID is missing")
	ErrInvalidTenantID     = errors.New("assetsync: invalid tenant ID")
	ErrInvalidChannelID    = errors.New("assetsync: invalid channel ID")
	ErrInvalidLanguage     = errors.New("assetsync: invalid import language")
	ErrMissingKeyMapping   = errors.New("assetsync: missing metadata key mapping")
	ErrCapabilityMissing   = errors.New("assetsync: sync target lacks required capability")
	ErrRetriesExhausted    = errors.New("assetsync: retry attempts exhausted")
	ErrResponseTooLarge    = errors.New("assetsync: response exceeds size limit")
	ErrMissingAccessToken  = errors.New("assetsync: access token is missing")
	ErrMissingRefreshToken = errors.New("assetsync: refresh token is missing")
)

// ConfigurationError reports a missing or invalid setting. It is raised
// before any network call and never retried.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field string, err error) error {
	return &ConfigurationError{Field: field, Err: err}
}

// AuthenticationError reports a failed token acquisition or refresh.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// PipelineKind classifies a PipelineError.
type PipelineKind string

const (
	KindGeneric        PipelineKind = "generic"
	KindConfiguration  PipelineKind = "configuration"
	KindCapability     PipelineKind = "capability"
	KindClassification PipelineKind = "classification"
	KindTransport      PipelineKind = "transport"
	KindDelivery       PipelineKind = "delivery"
)

// PipelineError aborts a sync run and is routed to the target's
// pipeline error handler.
type PipelineError struct {
	Kind PipelineKind
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("sync pipeline failed (%s): %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError wraps err as a PipelineError of the given kind.
func NewPipelineError(kind PipelineKind, err error) error {
	return &PipelineError{Kind: kind, Err: err}
}

// APIError is a non-2xx response from the catalog API.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("catalog API %s %s: HTTP %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("catalog API %s %s: HTTP %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// IsAuthFailure reports a 401 or 403 response.
func (e *APIError) IsAuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRateLimited reports a 429 response.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsServerError reports a 5xx response.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// TargetDeliveryError reports a failure raised by the sync target.
type TargetDeliveryError struct {
	Operation string
	Err       error
}

func (e *TargetDeliveryError) Error() string {
	return fmt.Sprintf("sync target %s: %v", e.Operation, e.Err)
}

func (e *TargetDeliveryError) Unwrap() error {
	return e.Err
}

// AsPipelineError classifies err for routing. Authentication errors are
// returned as-is in the second result; everything else becomes a
// PipelineError.
func AsPipelineError(err error) (*PipelineError, *AuthenticationError) {
	if err == nil {
		return nil, nil
	}

	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return nil, authErr
	}

	var pipeErr *PipelineError
	if errors.As(err, &pipeErr) {
		return pipeErr, nil
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return &PipelineError{Kind: KindConfiguration, Err: err}, nil
	}

	var deliveryErr *TargetDeliveryError
	if errors.As(err, &deliveryErr) {
		return &PipelineError{Kind: KindDelivery, Err: err}, nil
	}

	return &PipelineError{Kind: KindGeneric, Err: err}, nil
}
