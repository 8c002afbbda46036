package configcat

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestFileFetcher(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := marshalJSON(rootNodeWithValues(map[string]interface{}{"flag": true}))
	c.Assert(os.WriteFile(path, []byte(body), 0o644), qt.IsNil)
	fetcher := newFileConfigFetcher(path, newLeveledLogger(newTestLogger(t)))

	response := fetcher.getConfigurationAsync("").get()
	c.Assert(response.status, qt.Equals, Fetched)
	c.Assert(response.body, qt.Equals, body)
	eTag := response.eTag
	c.Assert(eTag, qt.Not(qt.Equals), "")

	response = fetcher.getConfigurationAsync(eTag).get()
	c.Assert(response.status, qt.Equals, NotModified)
	c.Assert(response.eTag, qt.Equals, eTag)

	// Another holder of the same content gets a full response.
	response = fetcher.getConfigurationAsync(`"other"`).get()
	c.Assert(response.status, qt.Equals, Fetched)
	c.Assert(response.eTag, qt.Equals, eTag)

	c.Assert(os.WriteFile(path, []byte(`{"f": broken`), 0o644), qt.IsNil)
	response = fetcher.getConfigurationAsync(eTag).get()
	c.Assert(response.status, qt.Equals, Failure)
	c.Assert(response.err.Kind, qt.Equals, FetchErrInvalidBody)

	c.Assert(os.Remove(path), qt.IsNil)
	response = fetcher.getConfigurationAsync(eTag).get()
	c.Assert(response.status, qt.Equals, Failure)
	c.Assert(response.err.Kind, qt.Equals, FetchErrTransport)
}

func TestFileFetcherWatch(t *testing.T) {
	c := qt.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	c.Assert(os.WriteFile(path, []byte(`{"f":{}}`), 0o644), qt.IsNil)
	fetcher := newFileConfigFetcher(path, newLeveledLogger(newTestLogger(t)))

	stop := make(chan struct{})
	defer close(stop)
	changes := make(chan struct{}, 10)
	err := fetcher.watch(stop, func() {
		changes <- struct{}{}
	})
	c.Assert(err, qt.IsNil)

	// Other files in the directory are ignored.
	c.Assert(os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644), qt.IsNil)
	c.Assert(os.WriteFile(path, []byte(`{"f":{"a":{"v":1,"t":2}}}`), 0o644), qt.IsNil)
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		c.Fatalf("no change notification")
	}
}

func TestFileFetcherWatchMissingDirectory(t *testing.T) {
	c := qt.New(t)
	fetcher := newFileConfigFetcher(filepath.Join(t.TempDir(), "missing", "config.json"), newLeveledLogger(newTestLogger(t)))
	err := fetcher.watch(make(chan struct{}), func() {})
	c.Assert(err, qt.ErrorMatches, `cannot watch local config file .*`)
}

func TestClientWithLocalFile(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(t.TempDir(), "config.json")
	write := func(value string) {
		body := marshalJSON(rootNodeWithValues(map[string]interface{}{"greeting": value}))
		c.Assert(os.WriteFile(path, []byte(body), 0o644), qt.IsNil)
	}
	write("hello")

	client := NewCustomClient("local", ClientConfig{
		Logger:         newTestLogger(t),
		Mode:           ManualPoll(),
		LocalFilePath:  path,
		WatchLocalFile: true,
	})
	defer client.Close()
	c.Assert(client.Refresh(), qt.IsNil)
	c.Assert(client.GetStringValue("greeting", "", nil), qt.Equals, "hello")

	write("hi")
	waitFor(c, func() bool {
		return client.GetStringValue("greeting", "", nil) == "hi"
	})
}
