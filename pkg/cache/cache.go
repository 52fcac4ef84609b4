// Package cache provides a TTL'd in-process cache for display reads,
// allowances and metadata that may be served slightly stale. Orchestrated
// transaction flows never read through it: they re-read live state at
// decision time.
package cache

import "time"

// Cache is a TTL'd key/value store.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns (value, true) if found, (nil, false) if not found.
	Get(key string) (interface{}, bool)

	// Set stores a value in the cache with a TTL.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value from the cache.
	Delete(key string)

	// Clear removes all values from the cache.
	Clear()

	// Close closes the cache and releases resources.
	Close()
}

// Lookup fetches a key and asserts its type. A nil cache or a present
// key of the wrong type both read as a miss.
func Lookup[T any](c Cache, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	value, found := c.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
