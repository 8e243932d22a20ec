// Package security provides validation, sanitization, and limits for the sync engine.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// Security limits and configuration
const (
	// MaxTenantIDLength is the maximum length for tenant IDs (one DNS label)
	MaxTenantIDLength = 63

	// MaxChannelIDLength is the maximum length for push channel IDs
	MaxChannelIDLength = 255

	// MaxImportLanguages is the maximum number of import languages
	MaxImportLanguages = 32

	// MaxPageSize is the hard limit for transactions per page
	MaxPageSize = 100

	// MaxAttempts is the hard limit for retry attempts
	MaxAttempts = 10

	// MaxConcurrency is the hard limit for concurrent target lookups
	MaxConcurrency = 64

	// MaxErrorMessageLength is the maximum length for stored error messages
	MaxErrorMessageLength = 4096

	// MaxRunListLimit is the maximum number of runs returned by one listing
	MaxRunListLimit = 500
)

// validTenantID matches a DNS label, since tenant IDs end up in host names
var validTenantID = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]*[a-zA-Z0-9])?$`)

// validLanguage matches two or three letter culture codes with an optional region
var validLanguage = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})?$`)

// ValidateTenantID validates a tenant ID
func ValidateTenantID(id string) error {
	if id == "" {
		return core.ErrMissingTenantID
	}
	if len(id) > MaxTenantIDLength || !validTenantID.MatchString(id) {
		return core.ErrInvalidTenantID
	}
	return nil
}

// ValidateLanguages validates the import language list
func ValidateLanguages(languages []string) error {
	if len(languages) == 0 {
		return core.ErrMissingLanguages
	}
	if len(languages) > MaxImportLanguages {
		return core.ErrInvalidLanguage
	}
	for _, lang := range languages {
		if !validLanguage.MatchString(lang) {
			return core.ErrInvalidLanguage
		}
	}
	return nil
}

// ValidateSettings checks the settings needed by every sync run and
// returns a ConfigurationError naming the offending field.
func ValidateSettings(s *core.Settings) error {
	if err := s.ValidateForSync(); err != nil {
		return err
	}
	if err := ValidateTenantID(s.TenantID); err != nil {
		return core.NewConfigurationError("tenant_id", err)
	}
	if err := ValidateLanguages(s.ImportLanguages); err != nil {
		return core.NewConfigurationError("import_languages", err)
	}
	return nil
}

// ValidateSettingsForPush additionally checks the push channel.
func ValidateSettingsForPush(s *core.Settings) error {
	if err := ValidateSettings(s); err != nil {
		return err
	}
	if err := s.ValidateForPush(); err != nil {
		return err
	}
	if len(s.ChannelID) > MaxChannelIDLength {
		return core.NewConfigurationError("channel_id", core.ErrInvalidChannelID)
	}
	return nil
}

// SanitizeErrorMessage truncates and sanitizes error messages for storage
func SanitizeErrorMessage(msg string) string {
	if msg == "" {
		return ""
	}

	// Remove any null bytes or control characters (except newlines)
	var sanitized strings.Builder
	sanitized.Grow(len(msg))

	for _, r := range msg {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			sanitized.WriteRune(r)
		}
	}

	result := sanitized.String()

	// Truncate if too long
	if utf8.RuneCountInString(result) > MaxErrorMessageLength {
		runes := []rune(result)
		result = string(runes[:MaxErrorMessageLength-3]) + "..."
	}

	return result
}

// ClampPageSize ensures the page size is within limits
func ClampPageSize(n int) int {
	return clamp(n, 1, MaxPageSize)
}

// ClampAttempts ensures the attempt count is within limits
func ClampAttempts(n int) int {
	return clamp(n, 1, MaxAttempts)
}

// ClampConcurrency ensures concurrency is within limits
func ClampConcurrency(n int) int {
	return clamp(n, 1, MaxConcurrency)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
