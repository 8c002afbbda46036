// Package configcat is the ConfigCat SDK for Go (https://configcat.com).
package configcat

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultPollInterval is the refresh interval used by AutoPoll and the
// cache TTL used by LazyLoad when none is given.
const DefaultPollInterval = 60 * time.Second

// minMaxWaitTimeForSyncCalls is the smallest non-zero wait time a client accepts for synchronous calls.
const minMaxWaitTimeForSyncCalls = 2 * time.Second

// Client is an object for handling configurations provided by ConfigCat.
type Client struct {
	parser                  *configParser
	refreshPolicy           refreshPolicy
	maxWaitTimeForSyncCalls time.Duration
	logger                  *leveledLogger

	stopWatch chan struct{}
	closeOnce sync.Once
}

// ClientConfig describes custom configuration options for the Client.
type ClientConfig struct {
	// Logger is used to log information about configuration evaluation
	// and issues. If it's nil, DefaultLogger(LogLevelWarn) will be used.
	Logger Logger

	// Cache is used to store the configuration. If it's nil, an
	// in-memory cache is used.
	Cache ConfigCache

	// MaxWaitTimeForSyncCalls bounds how long synchronous calls
	// (e.g. Client.GetBoolValue) block the caller. When it elapses the
	// last known configuration is used instead. It must be zero, meaning
	// no limit, or at least 2 seconds.
	MaxWaitTimeForSyncCalls time.Duration

	// HTTPTimeout is the maximum wait time for a HTTP response.
	// If it's not greater than zero, 15 seconds is used.
	HTTPTimeout time.Duration

	// BaseURL is the base ConfigCat CDN URL.
	BaseURL string

	// Transport is used as the HTTP transport for
	// requests to the CDN. If it's nil, http.DefaultTransport
	// will be used.
	Transport http.RoundTripper

	// Mode controls when the configuration is refreshed.
	// If it's nil, AutoPoll(DefaultPollInterval) will be used.
	Mode RefreshMode

	// DataGovernance specifies the data governance mode.
	// Set this parameter to be in sync with the Data Governance
	// preference on the Dashboard at
	// https://app.configcat.com/organization/data-governance (only
	// Organization Admins have access). The default is Global.
	DataGovernance DataGovernance

	// Hooks receives events about fetches and configuration changes.
	Hooks *Hooks

	// Registerer, when set, receives the client's Prometheus collectors.
	Registerer prometheus.Registerer

	// CircuitBreakerThreshold is the number of consecutive failed fetches
	// after which fetches are skipped for CircuitBreakerTimeout.
	// Zero disables the circuit breaker.
	CircuitBreakerThreshold uint32

	// CircuitBreakerTimeout is how long the circuit breaker stays open.
	// If it's zero, 60 seconds is used.
	CircuitBreakerTimeout time.Duration

	// LocalFilePath, when set, makes the client read the configuration
	// from this file instead of the ConfigCat CDN.
	LocalFilePath string

	// WatchLocalFile makes the client refresh whenever LocalFilePath changes.
	WatchLocalFile bool
}

func defaultConfig() ClientConfig {
	return ClientConfig{
		HTTPTimeout:           time.Second * 15,
		Transport:             http.DefaultTransport,
		Mode:                  AutoPoll(DefaultPollInterval),
		DataGovernance:        Global,
		CircuitBreakerTimeout: time.Second * 60,
	}
}

// NewClient initializes a new ConfigCat Client with the default configuration. The sdkKey parameter is mandatory.
func NewClient(sdkKey string) *Client {
	return NewCustomClient(sdkKey, ClientConfig{})
}

// NewCustomClient initializes a new ConfigCat Client with advanced configuration. The sdkKey parameter is mandatory.
func NewCustomClient(sdkKey string, config ClientConfig) *Client {
	return newInternal(sdkKey, config, nil)
}

func newInternal(sdkKey string, config ClientConfig, fetcher configProvider) *Client {
	if len(sdkKey) == 0 {
		panic("sdkKey cannot be empty")
	}
	if config.MaxWaitTimeForSyncCalls < 0 ||
		(config.MaxWaitTimeForSyncCalls > 0 && config.MaxWaitTimeForSyncCalls < minMaxWaitTimeForSyncCalls) {
		panic("MaxWaitTimeForSyncCalls must be zero or at least 2 seconds")
	}

	defaultConfig := defaultConfig()
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = defaultConfig.HTTPTimeout
	}
	if config.Transport == nil {
		config.Transport = defaultConfig.Transport
	}
	if config.Mode == nil {
		config.Mode = defaultConfig.Mode
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = defaultConfig.CircuitBreakerTimeout
	}

	logger := newLeveledLogger(config.Logger)
	client := &Client{
		parser:                  newParser(logger),
		maxWaitTimeForSyncCalls: config.MaxWaitTimeForSyncCalls,
		logger:                  logger,
		stopWatch:               make(chan struct{}),
	}

	var fileFetcher *fileConfigFetcher
	if fetcher == nil {
		if config.LocalFilePath != "" {
			fileFetcher = newFileConfigFetcher(config.LocalFilePath, logger)
			fetcher = fileFetcher
		} else {
			fetcher = newConfigFetcher(sdkKey, config, logger)
		}
	}

	client.refreshPolicy = config.Mode.accept(newRefreshPolicyFactory(refreshPolicyConfig{
		configFetcher: fetcher,
		cache:         config.Cache,
		logger:        logger,
		sdkKey:        sdkKey,
		hooks:         config.Hooks,
		metrics:       newFetchMetrics(config.Registerer),
	}))

	if fileFetcher != nil && config.WatchLocalFile {
		err := fileFetcher.watch(client.stopWatch, func() {
			client.refreshPolicy.refreshAsync()
		})
		if err != nil {
			logger.Errorf("Cannot watch the local config file: %v.", err)
		}
	}
	return client
}

// Refresh refreshes the cached configuration. It returns the reason the
// fetch failed, or a *TimeoutError if it did not finish within
// MaxWaitTimeForSyncCalls.
func (client *Client) Refresh() error {
	err, timeoutErr := client.refreshPolicy.refreshAsync().getOrTimeout(client.maxWaitTimeForSyncCalls)
	if timeoutErr != nil {
		return timeoutErr
	}
	return err
}

// RefreshAsync initiates a refresh of the cached configuration and
// calls completion with the result when it finishes.
func (client *Client) RefreshAsync(completion func(err error)) {
	client.refreshPolicy.refreshAsync().accept(completion)
}

// Close shuts down the client. After closing, it shouldn't be used.
func (client *Client) Close() {
	client.closeOnce.Do(func() {
		close(client.stopWatch)
		client.refreshPolicy.close()
	})
}

// GetBoolValue returns the value of a boolean-typed feature flag, or defaultValue if no
// value can be found. The user parameter is optional.
func (client *Client) GetBoolValue(key string, defaultValue bool, user *User) bool {
	return typedValue(client, key, defaultValue, user, Value.Bool)
}

// GetIntValue is like GetBoolValue except for int-typed (whole number) feature flags.
func (client *Client) GetIntValue(key string, defaultValue int, user *User) int {
	return typedValue(client, key, defaultValue, user, Value.Int)
}

// GetFloatValue is like GetBoolValue except for float-typed (decimal number) feature flags.
func (client *Client) GetFloatValue(key string, defaultValue float64, user *User) float64 {
	return typedValue(client, key, defaultValue, user, Value.Float)
}

// GetStringValue is like GetBoolValue except for string-typed (text) feature flags.
func (client *Client) GetStringValue(key string, defaultValue string, user *User) string {
	return typedValue(client, key, defaultValue, user, Value.Str)
}

func typedValue[T any](client *Client, key string, defaultValue T, user *User, as func(Value) (T, bool)) T {
	value, err := client.GetValue(key, user)
	if err != nil {
		return defaultValue
	}
	result, ok := as(value)
	if !ok {
		client.logger.Errorf("The type of setting %q is %v. Returning defaultValue: [%v].", key, value.Kind(), defaultValue)
		return defaultValue
	}
	return result
}

// GetValue evaluates the setting identified by key. The user parameter is optional.
func (client *Client) GetValue(key string, user *User) (Value, error) {
	return client.evaluate(client.getConfig(), key, user)
}

// GetValueAsync evaluates the setting identified by key and sends the
// result to completion once the configuration is available.
func (client *Client) GetValueAsync(key string, user *User, completion func(value Value, err error)) {
	if len(key) == 0 {
		panic("key cannot be empty")
	}
	client.refreshPolicy.getConfigurationAsync().accept(func(config string) {
		completion(client.evaluate(config, key, user))
	})
}

// GetVariationID returns the Variation ID of the setting identified by key,
// or defaultVariationID if it cannot be evaluated.
func (client *Client) GetVariationID(key string, defaultVariationID string, user *User) string {
	return client.variationID(client.getConfig(), key, defaultVariationID, user)
}

// GetAllVariationIDs returns the Variation IDs of all settings, in the
// order of GetAllKeys.
func (client *Client) GetAllVariationIDs(user *User) ([]string, error) {
	config := client.getConfig()
	keys, err := client.parser.getAllKeys(config)
	if err != nil {
		client.logger.Errorf("Evaluating GetAllVariationIDs() failed. Returning nil. %v.", err)
		return nil, err
	}
	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = client.variationID(config, key, "", user)
	}
	return ids, nil
}

// GetAllKeys returns all the setting keys in sorted order.
func (client *Client) GetAllKeys() ([]string, error) {
	return client.parser.getAllKeys(client.getConfig())
}

// GetAllKeysAsync sends all the setting keys to completion once the
// configuration is available.
func (client *Client) GetAllKeysAsync(completion func(keys []string, err error)) {
	client.refreshPolicy.getConfigurationAsync().accept(func(config string) {
		completion(client.parser.getAllKeys(config))
	})
}

// GetKeyAndValue returns the key of the setting and the value identified
// by the given Variation ID.
func (client *Client) GetKeyAndValue(variationID string) (string, Value, error) {
	key, value, err := client.parser.parseKeyValue(client.getConfig(), variationID)
	if err != nil {
		client.logger.Errorf("Evaluating GetKeyAndValue(%s) failed. %v.", variationID, err)
		return "", Value{}, err
	}
	return key, value, nil
}

// getConfig returns the configuration to evaluate against, falling back
// to the last known one when the policy does not provide it in time.
func (client *Client) getConfig() string {
	config, err := client.refreshPolicy.getConfigurationAsync().getOrTimeout(client.maxWaitTimeForSyncCalls)
	if err != nil {
		client.logger.Errorf("Policy could not provide the configuration: %v.", err)
		return client.refreshPolicy.getLastCachedConfig()
	}
	return config
}

func (client *Client) evaluate(config string, key string, user *User) (Value, error) {
	if len(key) == 0 {
		panic("key cannot be empty")
	}
	value, err := client.parser.parse(config, key, user)
	if err != nil {
		client.logger.Errorf("Evaluating GetValue(%s) failed. %v.", key, err)
		return Value{}, err
	}
	return value, nil
}

func (client *Client) variationID(config string, key string, defaultVariationID string, user *User) string {
	if len(key) == 0 {
		panic("key cannot be empty")
	}
	id, err := client.parser.parseVariationID(config, key, user)
	if err != nil {
		client.logger.Errorf("Evaluating GetVariationID(%s) failed. Returning defaultVariationID: [%s]. %v.",
			key, defaultVariationID, err)
		return defaultVariationID
	}
	return id
}
