package configcat

// manualPollingPolicy describes a refreshPolicy which fetches the latest configuration only when it's explicitly refreshed.
type manualPollingPolicy struct {
	*configRefresher
}

type manualPollConfig struct {
}

func (config manualPollConfig) getModeIdentifier() string {
	return "m"
}

func (config manualPollConfig) accept(visitor pollingModeVisitor) refreshPolicy {
	return visitor.visitManualPoll(config)
}

// ManualPoll creates a manual loading refresh mode.
func ManualPoll() RefreshMode {
	return manualPollConfig{}
}

// newManualPollingPolicy initializes a new manualPollingPolicy.
func newManualPollingPolicy(rconfig refreshPolicyConfig) *manualPollingPolicy {
	return &manualPollingPolicy{
		configRefresher: newConfigRefresher(rconfig),
	}
}

// getConfigurationAsync reads the current configuration value.
func (policy *manualPollingPolicy) getConfigurationAsync() *asyncResult[string] {
	return policy.getAsync()
}
