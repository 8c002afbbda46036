package configcat

// alwaysFetchPolicy describes a refreshPolicy which fetches the latest configuration over HTTP every time when a get configuration is called.
// Concurrent calls share a single request.
type alwaysFetchPolicy struct {
	*configRefresher
}

type alwaysFetchConfig struct {
}

func (config alwaysFetchConfig) getModeIdentifier() string {
	return "f"
}

func (config alwaysFetchConfig) accept(visitor pollingModeVisitor) refreshPolicy {
	return visitor.visitAlwaysFetch(config)
}

// AlwaysFetch creates a refresh mode which fetches on every read. Reads
// block until the fetch completes and fall back to the cached
// configuration when it fails.
func AlwaysFetch() RefreshMode {
	return alwaysFetchConfig{}
}

func newAlwaysFetchPolicy(rconfig refreshPolicyConfig) *alwaysFetchPolicy {
	return &alwaysFetchPolicy{
		configRefresher: newConfigRefresher(rconfig),
	}
}

// getConfigurationAsync reads the current configuration value.
func (policy *alwaysFetchPolicy) getConfigurationAsync() *asyncResult[string] {
	return applyResult(policy.fetchAsync(), fetchOutcome.configuration)
}
