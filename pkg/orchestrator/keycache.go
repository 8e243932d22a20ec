package orchestrator

import (
	"fmt"
	"sync"

	"github.com/jdziat/simple-asset-sync/pkg/core"
)

// KeyCache maps catalog metadata keys to the IDs the target assigned
// during the current run.
type KeyCache struct {
	mu      sync.RWMutex
	entries map[core.MetadataCategory]map[string]string
}

// NewKeyCache returns an empty cache.
func NewKeyCache() *KeyCache {
	return &KeyCache{entries: make(map[core.MetadataCategory]map[string]string)}
}

// Put records the IDs returned for category, replacing earlier entries.
func (c *KeyCache) Put(category core.MetadataCategory, ids map[string]string) {
	m := make(map[string]string, len(ids))
	for k, v := range ids {
		m[k] = v
	}
	c.mu.Lock()
	c.entries[category] = m
	c.mu.Unlock()
}

// Add records a single key, keeping the rest of category.
func (c *KeyCache) Add(category core.MetadataCategory, key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[category]
	if !ok {
		m = make(map[string]string)
		c.entries[category] = m
	}
	m[key] = id
}

// Lookup returns the target ID for key in category.
func (c *KeyCache) Lookup(category core.MetadataCategory, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[category][key]
	return id, ok
}

// Resolve is Lookup returning a classification error for unknown keys.
// The empty key resolves to itself.
func (c *KeyCache) Resolve(category core.MetadataCategory, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	id, ok := c.Lookup(category, key)
	if !ok {
		return "", missingKey(category, key)
	}
	return id, nil
}

func missingKey(category core.MetadataCategory, key string) error {
	return core.NewPipelineError(core.KindClassification,
		fmt.Errorf("%w: %s key %q", core.ErrMissingKeyMapping, category, key))
}

// Clear drops every entry.
func (c *KeyCache) Clear() {
	c.mu.Lock()
	clear(c.entries)
	c.mu.Unlock()
}

// Len returns the number of cached keys across categories.
func (c *KeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, m := range c.entries {
		n += len(m)
	}
	return n
}
