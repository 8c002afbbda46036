package configcat

// DataGovernance describes the location of your feature flag and setting data within the ConfigCat CDN.
type DataGovernance int

const (
	// Global indicates that your data will be published to all ConfigCat CDN nodes to guarantee lowest response times.
	Global DataGovernance = 0
	// EuOnly indicates that your data will be published to CDN nodes only in the EU.
	EuOnly DataGovernance = 1
)

const (
	globalBaseURL = "https://cdn-global.configcat.com"
	euOnlyBaseURL = "https://cdn-eu.configcat.com"
)

const version = "9.0.0"

const (
	no  = 0
	yes = 1
)

// async statuses
const (
	pending   = 0
	completed = 1
)
