package configcat

import (
	"errors"
	"sync"
	"time"

	"github.com/configcat/go-sdk/v9/configcatcache"
)

// refreshPolicy describes the configuration update rules.
// getConfigurationAsync never blocks; blocking happens only when the
// caller waits on the returned result.
type refreshPolicy interface {
	getConfigurationAsync() *asyncResult[string]
	// refreshAsync resolves with nil on success, or with the reason the fetch failed.
	refreshAsync() *asyncResult[error]
	getLastCachedConfig() string
	close()
}

type refreshPolicyConfig struct {
	configFetcher configProvider
	cache         ConfigCache
	logger        *leveledLogger
	sdkKey        string
	hooks         *Hooks
	metrics       *fetchMetrics
	now           func() time.Time
}

// configEntry is a configuration together with the data needed to decide its age.
type configEntry struct {
	body      string
	eTag      string
	fetchTime time.Time
}

// configRefresher holds the fetch and cache coordination shared by every
// policy. At most one fetch is in flight at a time; callers arriving while
// it runs get the same result. mu guards only the in-memory state and is
// never held while the cache is accessed.
type configRefresher struct {
	configFetcher configProvider
	cache         ConfigCache
	cacheKey      string
	logger        *leveledLogger
	hooks         *Hooks
	metrics       *fetchMetrics
	now           func() time.Time
	// configChanged is called after a configuration with new content is stored.
	configChanged func()
	// localCache is set for the in-memory cache, which is read on the caller's goroutine.
	localCache bool

	mu       sync.Mutex
	inMemory configEntry
	fetching *asyncResult[fetchOutcome]
	closed   bool
}

func newConfigRefresher(config refreshPolicyConfig) *configRefresher {
	refresher := &configRefresher{
		configFetcher: config.configFetcher,
		cache:         config.cache,
		cacheKey:      configcatcache.ProduceCacheKey(config.sdkKey),
		logger:        config.logger,
		hooks:         config.hooks,
		metrics:       config.metrics,
		now:           config.now,
	}
	if refresher.cache == nil {
		refresher.cache = newInMemoryConfigCache()
	}
	_, refresher.localCache = refresher.cache.(*inMemoryConfigCache)
	if refresher.logger == nil {
		refresher.logger = newLeveledLogger(nil)
	}
	if refresher.metrics == nil {
		refresher.metrics = newFetchMetrics(nil)
	}
	if refresher.now == nil {
		refresher.now = time.Now
	}
	// Load whatever a previous run left in the cache.
	refresher.current()
	return refresher
}

// fetchAsync starts a fetch, or returns the one already in flight.
func (refresher *configRefresher) fetchAsync() *asyncResult[fetchOutcome] {
	refresher.mu.Lock()
	if refresher.closed {
		refresher.mu.Unlock()
		return applyResult(refresher.currentAsync(), func(entry configEntry) fetchOutcome {
			return fetchOutcome{config: entry.body, err: ErrClientClosed}
		})
	}
	if fetching := refresher.fetching; fetching != nil {
		refresher.mu.Unlock()
		refresher.metrics.observeJoin()
		return fetching
	}
	fetching := newAsyncResult[fetchOutcome]()
	refresher.fetching = fetching
	eTag := refresher.inMemory.eTag
	refresher.mu.Unlock()

	refresher.logger.Debugf("Fetching the latest configuration.")
	started := time.Now()
	refresher.configFetcher.getConfigurationAsync(eTag).accept(func(response fetchResponse) {
		fetching.mustComplete(refresher.handleResponse(response, time.Since(started)))
	})
	return fetching
}

// handleResponse runs on the fetching goroutine. The cache is read and
// written without holding the mutex.
func (refresher *configRefresher) handleResponse(response fetchResponse, duration time.Duration) fetchOutcome {
	refresher.metrics.observeFetch(response.status, duration)
	refresher.hooks.fetch(response.status, duration)

	var outcome fetchOutcome
	changed := false

	current := refresher.current()
	switch {
	case response.isFetched():
		changed = response.body != current.body
		refresher.store(configEntry{body: response.body, eTag: response.eTag, fetchTime: refresher.now()})
		outcome.config = response.body
	case response.isNotModified():
		if current.body != "" {
			current.fetchTime = refresher.now()
			refresher.store(current)
		}
		outcome.config = current.body
	default:
		// Keep serving the last known configuration.
		outcome.config = current.body
		if response.err != nil {
			outcome.err = response.err
		} else {
			outcome.err = &FetchError{Kind: FetchErrTransport}
		}
	}
	refresher.mu.Lock()
	refresher.fetching = nil
	refresher.mu.Unlock()

	if outcome.err != nil {
		refresher.logger.Warnf("Config fetch failed, using the last known configuration: %v.", outcome.err)
		refresher.hooks.error(outcome.err)
	}
	if changed {
		refresher.logger.Debugf("Config changed.")
		refresher.hooks.configChanged()
		if refresher.configChanged != nil {
			refresher.configChanged()
		}
	}
	return outcome
}

// refreshAsync forces a fetch (or joins the one in flight).
func (refresher *configRefresher) refreshAsync() *asyncResult[error] {
	return applyResult(refresher.fetchAsync(), fetchOutcome.failure)
}

// getLastCachedConfig returns the most recently fetched or cache-loaded
// configuration without touching the cache.
func (refresher *configRefresher) getLastCachedConfig() string {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	return refresher.inMemory.body
}

// getAsync reads the configuration without making the caller wait on the cache.
func (refresher *configRefresher) getAsync() *asyncResult[string] {
	return applyResult(refresher.currentAsync(), configEntry.configuration)
}

// currentAsync reads the configuration entry. Caches other than the
// in-memory one are read on their own goroutine.
func (refresher *configRefresher) currentAsync() *asyncResult[configEntry] {
	if refresher.localCache {
		return asCompletedAsyncResult(refresher.current())
	}
	result := newAsyncResult[configEntry]()
	go func() {
		result.complete(refresher.current())
	}()
	return result
}

// current reads the configuration entry from the cache, falling back to
// the one held in memory.
func (refresher *configRefresher) current() configEntry {
	entry, ok := refresher.readCache()

	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	// The in-memory entry is ahead of the cache when a cache write failed.
	if !ok || entry.fetchTime.Before(refresher.inMemory.fetchTime.Truncate(time.Millisecond)) {
		return refresher.inMemory
	}
	refresher.inMemory = entry
	return entry
}

// readCache reports false when the cache holds no usable entry.
func (refresher *configRefresher) readCache() (configEntry, bool) {
	value, err := refresher.cache.Get(refresher.cacheKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			refresher.logger.Errorf("Reading from the cache failed, %v.", err)
			refresher.metrics.observeCacheError("get")
		}
		return configEntry{}, false
	}
	if value == "" {
		return configEntry{}, false
	}
	fetchTime, eTag, config, err := configcatcache.CacheSegmentsFromBytes([]byte(value))
	if err != nil {
		refresher.logger.Errorf("Reading from the cache failed, invalid cache entry: %v.", err)
		refresher.metrics.observeCacheError("decode")
		return configEntry{}, false
	}
	return configEntry{body: string(config), eTag: eTag, fetchTime: fetchTime}, true
}

// store makes entry the current configuration and writes it to the cache.
func (refresher *configRefresher) store(entry configEntry) {
	refresher.mu.Lock()
	refresher.inMemory = entry
	refresher.mu.Unlock()

	value := configcatcache.CacheSegmentsToBytes(entry.fetchTime, entry.eTag, []byte(entry.body))
	if err := refresher.cache.Set(refresher.cacheKey, string(value)); err != nil {
		refresher.logger.Errorf("Saving into the cache failed, %v.", err)
		refresher.metrics.observeCacheError("set")
	}
}

func (refresher *configRefresher) close() {
	refresher.mu.Lock()
	defer refresher.mu.Unlock()
	refresher.closed = true
}

func (entry configEntry) configuration() string {
	return entry.body
}

func (outcome fetchOutcome) configuration() string {
	return outcome.config
}

func (outcome fetchOutcome) failure() error {
	return outcome.err
}
