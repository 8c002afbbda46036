package configcat

import (
	"time"
)

// lazyLoadingPolicy describes a refreshPolicy which uses an expiring cache to maintain the internally stored configuration.
type lazyLoadingPolicy struct {
	*configRefresher
	cacheInterval   time.Duration
	useAsyncRefresh bool
}

// lazyLoadConfig describes the configuration for lazy loading.
type lazyLoadConfig struct {
	// The cache invalidation interval.
	cacheInterval time.Duration
	// If you use the asynchronous refresh then when a request is being made on the cache while it's expired,
	// the previous value will be returned immediately until the fetching of the new configuration is completed.
	useAsyncRefresh bool
}

func (config lazyLoadConfig) getModeIdentifier() string {
	return "l"
}

func (config lazyLoadConfig) accept(visitor pollingModeVisitor) refreshPolicy {
	return visitor.visitLazyLoad(config)
}

// LazyLoad creates a lazy loading refresh mode.
func LazyLoad(cacheInterval time.Duration, useAsyncRefresh bool) RefreshMode {
	return lazyLoadConfig{cacheInterval: cacheInterval, useAsyncRefresh: useAsyncRefresh}
}

// newLazyLoadingPolicy initializes a new lazyLoadingPolicy.
func newLazyLoadingPolicy(
	config lazyLoadConfig,
	rconfig refreshPolicyConfig,
) *lazyLoadingPolicy {
	if config.cacheInterval <= 0 {
		config.cacheInterval = DefaultPollInterval
	}
	return &lazyLoadingPolicy{
		configRefresher: newConfigRefresher(rconfig),
		cacheInterval:   config.cacheInterval,
		useAsyncRefresh: config.useAsyncRefresh,
	}
}

// getConfigurationAsync reads the current configuration value.
// An expired configuration triggers a fetch; the result then waits for it
// unless asynchronous refresh is enabled and there is a value to return meanwhile.
func (policy *lazyLoadingPolicy) getConfigurationAsync() *asyncResult[string] {
	return composeResult(policy.currentAsync(), func(entry configEntry) *asyncResult[string] {
		if policy.now().Sub(entry.fetchTime) <= policy.cacheInterval {
			policy.logger.Debugf("Reading from cache.")
			return asCompletedAsyncResult(entry.body)
		}

		policy.logger.Debugf("Cache expired, refreshing.")
		fetching := policy.fetchAsync()
		if policy.useAsyncRefresh && entry.body != "" {
			return asCompletedAsyncResult(entry.body)
		}
		return applyResult(fetching, fetchOutcome.configuration)
	})
}
