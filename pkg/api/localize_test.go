package api

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

func TestAddLanguageFallback(t *testing.T) {
	tests := []struct {
		name      string
		languages []string
		values    map[string]string
		want      map[string]string
	}{
		{
			name:      "no import languages returns values unchanged",
			languages: nil,
			values:    map[string]string{"en": "Hello", "fr": "Bonjour"},
			want:      map[string]string{"en": "Hello", "fr": "Bonjour"},
		},
		{
			name:      "no values returns nil",
			languages: []string{"de"},
			values:    map[string]string{},
			want:      nil,
		},
		{
			name:      "keeps import languages only",
			languages: []string{"de"},
			values:    map[string]string{"en": "Hello", "de": "Hallo"},
			want:      map[string]string{"de": "Hallo"},
		},
		{
			name:      "falls back to English",
			languages: []string{"de", "fr"},
			values:    map[string]string{"en": "Hello", "fr": "Bonjour"},
			want:      map[string]string{"de": "Hello", "fr": "Bonjour"},
		},
		{
			name:      "no fallback when English is imported",
			languages: []string{"en", "de"},
			values:    map[string]string{"en": "Hello"},
			want:      map[string]string{"en": "Hello"},
		},
		{
			name:      "nothing to fall back to",
			languages: []string{"de"},
			values:    map[string]string{"fr": "Bonjour"},
			want:      map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, addLanguageFallback(tt.languages, tt.values))
		})
	}
}

func TestLocalizeStrings(t *testing.T) {
	assert.Nil(t, localizeStrings([]string{"en"}, nil))

	in := []localizedString{
		{Culture: "en", Value: "Sunset"},
		{Culture: "it", Value: "Tramonto"},
	}
	assert.Equal(t, core.Translated{"en": "Sunset"}, localizeStrings([]string{"en"}, in))
	assert.Equal(t, core.Translated{"it": "Tramonto", "de": "Sunset"}, localizeStrings([]string{"it", "de"}, in))
}

func TestLocalizeMetadata_KeepsOrder(t *testing.T) {
	in := []localizedMetadataElement{
		{Culture: "en", MetadataElement: metadataElement{Key: "b", Name: "B"}},
		{Culture: "en", MetadataElement: metadataElement{Key: "a", Name: "A"}},
		{Culture: "xx", MetadataElement: metadataElement{Key: "c", Name: "C"}},
		{Culture: "de", MetadataElement: metadataElement{Key: "b", Name: "Be"}},
	}

	elems := localizeMetadata([]string{"en", "de"}, in)
	assert.Equal(t, []core.MetadataElement{
		{Key: "b", Values: core.Translated{"en": "B", "de": "Be"}},
		{Key: "a", Values: core.Translated{"en": "A"}},
	}, elems)
}
