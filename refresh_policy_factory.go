package configcat

// RefreshMode is a base for refresh mode configurations.
type RefreshMode interface {
	getModeIdentifier() string
	accept(visitor pollingModeVisitor) refreshPolicy
}

type pollingModeVisitor interface {
	visitAutoPoll(config autoPollConfig) refreshPolicy
	visitManualPoll(config manualPollConfig) refreshPolicy
	visitLazyLoad(config lazyLoadConfig) refreshPolicy
	visitAlwaysFetch(config alwaysFetchConfig) refreshPolicy
}

type refreshPolicyFactory struct {
	config refreshPolicyConfig
}

func newRefreshPolicyFactory(config refreshPolicyConfig) *refreshPolicyFactory {
	return &refreshPolicyFactory{config: config}
}

func (factory *refreshPolicyFactory) visitAutoPoll(config autoPollConfig) refreshPolicy {
	return newAutoPollingPolicy(config, factory.config)
}

func (factory *refreshPolicyFactory) visitManualPoll(config manualPollConfig) refreshPolicy {
	return newManualPollingPolicy(factory.config)
}

func (factory *refreshPolicyFactory) visitLazyLoad(config lazyLoadConfig) refreshPolicy {
	return newLazyLoadingPolicy(config, factory.config)
}

func (factory *refreshPolicyFactory) visitAlwaysFetch(config alwaysFetchConfig) refreshPolicy {
	return newAlwaysFetchPolicy(factory.config)
}
