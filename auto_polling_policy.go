package configcat

import (
	"sync/atomic"
	"time"
)

// autoPollingPolicy describes a refreshPolicy which polls the latest configuration over HTTP and updates the local cache repeatedly.
type autoPollingPolicy struct {
	*configRefresher
	autoPollInterval time.Duration
	init             *async
	stop             chan struct{}
	closed           uint32
}

// autoPollConfig describes the configuration for auto polling.
type autoPollConfig struct {
	// The auto polling interval.
	autoPollInterval time.Duration
	// The configuration change listener.
	changeListener func()
}

func (config autoPollConfig) getModeIdentifier() string {
	return "a"
}

func (config autoPollConfig) accept(visitor pollingModeVisitor) refreshPolicy {
	return visitor.visitAutoPoll(config)
}

// AutoPoll creates an auto polling refresh mode.
func AutoPoll(interval time.Duration) RefreshMode {
	return autoPollConfig{autoPollInterval: interval}
}

// AutoPollWithChangeListener creates an auto polling refresh mode with change listener callback.
func AutoPollWithChangeListener(
	interval time.Duration,
	changeListener func()) RefreshMode {
	return autoPollConfig{autoPollInterval: interval, changeListener: changeListener}
}

// newAutoPollingPolicy initializes a new autoPollingPolicy and starts polling.
func newAutoPollingPolicy(
	autoPollConfig autoPollConfig,
	rconfig refreshPolicyConfig,
) *autoPollingPolicy {
	if autoPollConfig.autoPollInterval < time.Millisecond {
		autoPollConfig.autoPollInterval = DefaultPollInterval
	}
	policy := &autoPollingPolicy{
		configRefresher:  newConfigRefresher(rconfig),
		autoPollInterval: autoPollConfig.autoPollInterval,
		init:             newAsync(),
		stop:             make(chan struct{}),
	}
	policy.configChanged = autoPollConfig.changeListener
	policy.startPolling()
	return policy
}

// getConfigurationAsync reads the current configuration value.
// Until the first fetch finishes, the result waits for it.
func (policy *autoPollingPolicy) getConfigurationAsync() *asyncResult[string] {
	if policy.init.isCompleted() {
		return policy.readCache()
	}

	return composeAsync(policy.init, policy.readCache)
}

// close shuts down the policy.
func (policy *autoPollingPolicy) close() {
	if atomic.CompareAndSwapUint32(&policy.closed, no, yes) {
		policy.configRefresher.close()
		close(policy.stop)
	}
}

func (policy *autoPollingPolicy) startPolling() {
	policy.logger.Debugf("Auto polling started with %+v interval.", policy.autoPollInterval)

	ticker := time.NewTicker(policy.autoPollInterval)
	first := policy.fetchAsync()

	go func() {
		defer ticker.Stop()
		policy.waitPoll(first)
		policy.init.complete()
		for {
			select {
			case <-policy.stop:
				policy.logger.Debugf("Auto polling stopped.")
				return
			case <-ticker.C:
				policy.waitPoll(policy.fetchAsync())
			}
		}
	}()
}

// waitPoll waits for a poll to finish. Closing the policy stops the wait
// but not the fetch itself.
func (policy *autoPollingPolicy) waitPoll(fetching *asyncResult[fetchOutcome]) {
	select {
	case <-fetching.done:
	case <-policy.stop:
	}
}

func (policy *autoPollingPolicy) readCache() *asyncResult[string] {
	policy.logger.Debugf("Reading from cache.")
	return policy.getAsync()
}
