package configcat

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

// fakeConfigProvider is a configProvider whose responses are set by the test.
// When a gate is set, fetches do not finish until it is closed.
type fakeConfigProvider struct {
	fetches atomic.Int32

	mu       sync.Mutex
	eTags    []string
	response fetchResponse
	delay    time.Duration
	gate     chan struct{}
}

func newFakeConfigProvider() *fakeConfigProvider {
	return &fakeConfigProvider{}
}

func (fetcher *fakeConfigProvider) getConfigurationAsync(eTag string) *asyncResult[fetchResponse] {
	fetcher.fetches.Add(1)
	fetcher.mu.Lock()
	fetcher.eTags = append(fetcher.eTags, eTag)
	response, delay, gate := fetcher.response, fetcher.delay, fetcher.gate
	fetcher.mu.Unlock()

	result := newAsyncResult[fetchResponse]()
	go func() {
		if gate != nil {
			<-gate
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		result.complete(response)
	}()
	return result
}

func (fetcher *fakeConfigProvider) setResponse(response fetchResponse) {
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	fetcher.response = response
}

func (fetcher *fakeConfigProvider) setResponseWithDelay(response fetchResponse, delay time.Duration) {
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	fetcher.response = response
	fetcher.delay = delay
}

// hold makes subsequent fetches wait until the returned function is called.
func (fetcher *fakeConfigProvider) hold() (release func()) {
	gate := make(chan struct{})
	fetcher.mu.Lock()
	fetcher.gate = gate
	fetcher.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			fetcher.mu.Lock()
			fetcher.gate = nil
			fetcher.mu.Unlock()
			close(gate)
		})
	}
}

// lastETag returns the ETag passed to the most recent fetch.
func (fetcher *fakeConfigProvider) lastETag() string {
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	if len(fetcher.eTags) == 0 {
		return ""
	}
	return fetcher.eTags[len(fetcher.eTags)-1]
}

func (fetcher *fakeConfigProvider) fetchCount() int {
	return int(fetcher.fetches.Load())
}

func fetched(body string) fetchResponse {
	return fetchResponse{status: Fetched, body: body}
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) advance(d time.Duration) {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	clock.now = clock.now.Add(d)
}

func testPolicyConfig(t testing.TB, fetcher configProvider) refreshPolicyConfig {
	return refreshPolicyConfig{
		configFetcher: fetcher,
		cache:         newInMemoryConfigCache(),
		logger:        newLeveledLogger(newTestLogger(t)),
		sdkKey:        "test-sdk-key",
	}
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(c *qt.C, cond func() bool) {
	c.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			c.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
