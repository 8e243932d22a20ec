package api

import (
	"slices"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

const fallbackLanguage = "en"

// wanted reports whether culture survives import-language filtering.
func wanted(languages []string, culture string) bool {
	return culture == fallbackLanguage || slices.Contains(languages, culture)
}

// addLanguageFallback keeps the values of the import languages. When English
// is not itself imported, languages without a value fall back to English.
// Empty languages return values unchanged; empty values return nil.
func addLanguageFallback[T any](languages []string, values map[string]T) map[string]T {
	if len(languages) == 0 {
		return values
	}
	if len(values) == 0 {
		return nil
	}

	needFallback := !slices.Contains(languages, fallbackLanguage)
	result := make(map[string]T, len(languages))
	for _, lang := range languages {
		if v, ok := values[lang]; ok {
			result[lang] = v
		} else if en, ok := values[fallbackLanguage]; ok && needFallback {
			result[lang] = en
		}
	}
	return result
}

func localizeStrings(languages []string, in []localizedString) core.Translated {
	if in == nil {
		return nil
	}
	values := make(map[string]string, len(in))
	for _, s := range in {
		if wanted(languages, s.Culture) {
			values[s.Culture] = s.Value
		}
	}
	return core.Translated(addLanguageFallback(languages, values))
}

// localizeGrouped groups element names, or URLs when useURL is set, by culture.
func localizeGrouped(languages []string, in []localizedMetadataElement, useURL bool) core.TranslatedList {
	if in == nil {
		return nil
	}
	values := make(map[string][]string)
	for _, e := range in {
		if !wanted(languages, e.Culture) {
			continue
		}
		v := e.MetadataElement.Name
		if useURL {
			v = e.MetadataElement.URL
		}
		values[e.Culture] = append(values[e.Culture], v)
	}
	return core.TranslatedList(addLanguageFallback(languages, values))
}

// localizeMetadata groups localized elements by key, keeping first-seen order.
func localizeMetadata(languages []string, in []localizedMetadataElement) []core.MetadataElement {
	var keys []string
	byKey := make(map[string]map[string]string)
	for _, e := range in {
		if !wanted(languages, e.Culture) {
			continue
		}
		key := e.MetadataElement.Key
		names, ok := byKey[key]
		if !ok {
			names = make(map[string]string)
			byKey[key] = names
			keys = append(keys, key)
		}
		names[e.Culture] = e.MetadataElement.Name
	}

	elems := make([]core.MetadataElement, 0, len(keys))
	for _, key := range keys {
		elems = append(elems, core.MetadataElement{
			Key:    key,
			Values: core.Translated(addLanguageFallback(languages, byKey[key])),
		})
	}
	return elems
}
