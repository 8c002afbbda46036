package configcat

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/sony/gobreaker/v2"

	"github.com/configcat/go-sdk/v9/configcatcache"
	"github.com/configcat/go-sdk/v9/internal/wireconfig"
)

// maxRedirects bounds how many times a single fetch follows the
// redirect preference of the CDN.
const maxRedirects = 2

var errRedirectLoop = errors.New("redirect loop during config fetch")

// configProvider collects the latest configuration. eTag identifies the
// configuration the caller already holds, if any.
// Implementations must be safe for concurrent use.
type configProvider interface {
	getConfigurationAsync(eTag string) *asyncResult[fetchResponse]
}

// configFetcher fetches the configuration over HTTP from the ConfigCat CDN.
type configFetcher struct {
	sdkKey      string
	mode        string
	urlIsCustom bool
	client      *http.Client
	logger      *leveledLogger
	breaker     *gobreaker.CircuitBreaker[fetchResponse]

	mu      sync.Mutex
	baseURL string
}

func newConfigFetcher(sdkKey string, config ClientConfig, logger *leveledLogger) *configFetcher {
	fetcher := &configFetcher{
		sdkKey: sdkKey,
		mode:   config.Mode.getModeIdentifier(),
		logger: logger,
		client: &http.Client{Timeout: config.HTTPTimeout, Transport: config.Transport},
	}

	if config.BaseURL == "" {
		if config.DataGovernance == Global {
			fetcher.baseURL = globalBaseURL
		} else {
			fetcher.baseURL = euOnlyBaseURL
		}
	} else {
		fetcher.urlIsCustom = true
		fetcher.baseURL = config.BaseURL
	}

	if config.CircuitBreakerThreshold > 0 {
		threshold := config.CircuitBreakerThreshold
		fetcher.breaker = gobreaker.NewCircuitBreaker[fetchResponse](gobreaker.Settings{
			Name:    "configcat-fetch",
			Timeout: config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnf("Config fetch circuit breaker changed state: %v -> %v.", from, to)
			},
		})
	}

	return fetcher
}

// getConfigurationAsync starts a fetch on its own goroutine.
func (fetcher *configFetcher) getConfigurationAsync(eTag string) *asyncResult[fetchResponse] {
	result := newAsyncResult[fetchResponse]()
	go func() {
		result.complete(fetcher.fetch(eTag))
	}()
	return result
}

func (fetcher *configFetcher) fetch(eTag string) fetchResponse {
	for redirects := 0; ; redirects++ {
		response, preferences := fetcher.executeFetch(eTag)
		url, redirect, ok := preferences.Redirection()
		if !response.isFetched() || !ok {
			return response
		}

		fetcher.mu.Lock()
		baseURL := fetcher.baseURL
		fetcher.mu.Unlock()
		if url == baseURL {
			return response
		}
		if fetcher.urlIsCustom && redirect != wireconfig.ForceRedirect {
			return response
		}

		fetcher.mu.Lock()
		fetcher.baseURL = url
		fetcher.mu.Unlock()
		if redirect == wireconfig.NoRedirect {
			return response
		}
		if redirect == wireconfig.ShouldRedirect {
			fetcher.logger.Warnf("Your DataGovernance parameter at ConfigCat client " +
				"initialization is not in sync with your preferences on the ConfigCat " +
				"Dashboard: https://app.configcat.com/organization/data-governance. " +
				"Only Organization Admins can access this preference.")
		}

		if redirects >= maxRedirects {
			fetcher.logger.Errorf("Redirect loop during config.json fetch. Please contact support@configcat.com.")
			return failedFetch(FetchErrTransport, errRedirectLoop)
		}
		// The ETag was issued by the previous address.
		eTag = ""
	}
}

// executeFetch sends one request, going through the circuit breaker when one is configured.
func (fetcher *configFetcher) executeFetch(eTag string) (fetchResponse, *wireconfig.Preferences) {
	if fetcher.breaker == nil {
		return fetcher.sendFetchRequest(eTag)
	}

	var preferences *wireconfig.Preferences
	response, err := fetcher.breaker.Execute(func() (fetchResponse, error) {
		response, prefs := fetcher.sendFetchRequest(eTag)
		preferences = prefs
		if response.isFailed() {
			return response, response.err
		}
		return response, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		fetcher.logger.Warnf("Config fetch skipped: %v.", err)
		return failedFetch(FetchErrUnavailable, err), nil
	}
	return response, preferences
}

func (fetcher *configFetcher) sendFetchRequest(eTag string) (fetchResponse, *wireconfig.Preferences) {
	fetcher.mu.Lock()
	baseURL := fetcher.baseURL
	fetcher.mu.Unlock()

	request, err := http.NewRequest(http.MethodGet, baseURL+"/configuration-files/"+fetcher.sdkKey+"/"+configcatcache.ConfigJSONName, nil)
	if err != nil {
		return failedFetch(FetchErrTransport, err), nil
	}

	request.Header.Add("X-ConfigCat-UserAgent", "ConfigCat-Go/"+fetcher.mode+"-"+version)
	if eTag != "" {
		request.Header.Add("If-None-Match", eTag)
	}

	response, err := fetcher.client.Do(request)
	if err != nil {
		fetcher.logger.Errorf("Config fetch failed: %v.", err)
		return failedFetch(FetchErrTransport, err), nil
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotModified {
		fetcher.logger.Debugf("Config fetch succeeded: not modified.")
		return fetchResponse{status: NotModified, eTag: eTag}, nil
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		body, err := io.ReadAll(response.Body)
		if err != nil {
			fetcher.logger.Errorf("Config fetch failed: %v.", err)
			return failedFetch(FetchErrTransport, err), nil
		}
		root, err := parseRootNode(body)
		if err != nil {
			fetcher.logger.Errorf("Config fetch returned invalid body: %v.", err)
			return failedFetch(FetchErrInvalidBody, err), nil
		}

		fetcher.logger.Debugf("Config fetch succeeded: new config fetched.")
		return fetchResponse{status: Fetched, body: string(body), eTag: response.Header.Get("Etag")}, root.Preferences
	}

	fetcher.logger.Errorf("Double-check your SDK KEY at https://app.configcat.com/sdkkey. "+
		"Received unexpected response: %v.", response.StatusCode)
	return fetchResponse{
		status: Failure,
		err:    &FetchError{Kind: FetchErrHTTPStatus, StatusCode: response.StatusCode},
	}, nil
}
