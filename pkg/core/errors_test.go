package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("tenant_id", ErrMissingTenantID)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "tenant_id", cfgErr.Field)
	assert.True(t, errors.Is(err, ErrMissingTenantID))
	assert.Contains(t, err.Error(), "tenant_id")
}

func TestAPIError_Classification(t *testing.T) {
	tests := []struct {
		status      int
		auth        bool
		rateLimited bool
		server      bool
	}{
		{http.StatusUnauthorized, true, false, false},
		{http.StatusForbidden, true, false, false},
		{http.StatusTooManyRequests, false, true, false},
		{http.StatusBadGateway, false, false, true},
		{http.StatusNotFound, false, false, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := &APIError{StatusCode: tt.status, Method: "GET", URL: "/x"}
			assert.Equal(t, tt.auth, err.IsAuthFailure())
			assert.Equal(t, tt.rateLimited, err.IsRateLimited())
			assert.Equal(t, tt.server, err.IsServerError())
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{StatusCode: 404, Method: "GET", URL: "/assets", Message: "not found"}
	assert.Contains(t, err.Error(), "HTTP 404")
	assert.Contains(t, err.Error(), "not found")
}

func TestAsPipelineError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		pipe, auth := AsPipelineError(nil)
		assert.Nil(t, pipe)
		assert.Nil(t, auth)
	})

	t.Run("authentication error is routed separately", func(t *testing.T) {
		wrapped := fmt.Errorf("fetch: %w", &AuthenticationError{Err: errors.New("bad refresh token")})
		pipe, auth := AsPipelineError(wrapped)
		assert.Nil(t, pipe)
		require.NotNil(t, auth)
		assert.Contains(t, auth.Error(), "bad refresh token")
	})

	t.Run("pipeline error keeps its kind", func(t *testing.T) {
		pipe, auth := AsPipelineError(NewPipelineError(KindTransport, ErrRetriesExhausted))
		assert.Nil(t, auth)
		require.NotNil(t, pipe)
		assert.Equal(t, KindTransport, pipe.Kind)
		assert.True(t, errors.Is(pipe, ErrRetriesExhausted))
	})

	t.Run("configuration error", func(t *testing.T) {
		pipe, _ := AsPipelineError(NewConfigurationError("import_languages", ErrMissingLanguages))
		require.NotNil(t, pipe)
		assert.Equal(t, KindConfiguration, pipe.Kind)
	})

	t.Run("delivery error", func(t *testing.T) {
		pipe, _ := AsPipelineError(&TargetDeliveryError{Operation: "import_new_binaries", Err: errors.New("disk full")})
		require.NotNil(t, pipe)
		assert.Equal(t, KindDelivery, pipe.Kind)
		assert.Contains(t, pipe.Error(), "disk full")
	})

	t.Run("anything else is generic", func(t *testing.T) {
		pipe, _ := AsPipelineError(errors.New("boom"))
		require.NotNil(t, pipe)
		assert.Equal(t, KindGeneric, pipe.Kind)
	})
}
