package configcat

import (
	"errors"
	"sync"
)

// ConfigCache is a cache API used to make custom cache implementations.
// Implementations must be safe for concurrent use.
type ConfigCache interface {
	// Get reads the configuration from the cache. A miss is reported either
	// as an empty string or as an error matching ErrCacheMiss.
	Get(key string) (string, error)
	// Set writes the configuration into the cache.
	Set(key string, value string) error
}

// ErrCacheMiss may be returned by ConfigCache.Get when there is no entry for the key.
var ErrCacheMiss = errors.New("configcat: cache miss")

type inMemoryConfigCache struct {
	mu    sync.RWMutex
	store map[string]string
}

// newInMemoryConfigCache creates an in-memory cache implementation used to store the fetched configurations.
func newInMemoryConfigCache() *inMemoryConfigCache {
	return &inMemoryConfigCache{store: make(map[string]string)}
}

// Get reads the configuration from the cache.
func (cache *inMemoryConfigCache) Get(key string) (string, error) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return cache.store[key], nil
}

// Set writes the configuration into the cache.
func (cache *inMemoryConfigCache) Set(key string, value string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.store[key] = value
	return nil
}
