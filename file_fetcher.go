package configcat

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fileConfigFetcher reads the configuration from a local JSON file
// in the same format the CDN serves.
type fileConfigFetcher struct {
	path   string
	logger *leveledLogger
}

func newFileConfigFetcher(path string, logger *leveledLogger) *fileConfigFetcher {
	return &fileConfigFetcher{path: path, logger: logger}
}

func (fetcher *fileConfigFetcher) getConfigurationAsync(eTag string) *asyncResult[fetchResponse] {
	result := newAsyncResult[fetchResponse]()
	go func() {
		result.complete(fetcher.read(eTag))
	}()
	return result
}

// read reports NotModified when the content hash of the file equals eTag.
func (fetcher *fileConfigFetcher) read(eTag string) fetchResponse {
	data, err := os.ReadFile(fetcher.path)
	if err != nil {
		fetcher.logger.Errorf("Failed to read the local config file '%s': %v.", fetcher.path, err)
		return failedFetch(FetchErrTransport, err)
	}
	if _, err := parseRootNode(data); err != nil {
		fetcher.logger.Errorf("Failed to decode JSON from the local config file '%s': %v.", fetcher.path, err)
		return failedFetch(FetchErrInvalidBody, err)
	}

	sum := sha1.Sum(data)
	contentETag := `"` + hex.EncodeToString(sum[:]) + `"`
	if contentETag == eTag {
		return fetchResponse{status: NotModified, eTag: eTag}
	}
	return fetchResponse{status: Fetched, body: string(data), eTag: contentETag}
}

// fileWatchDebounce is how long the file must stay quiet after a change
// before onChange is called. A single save often produces several events.
const fileWatchDebounce = 50 * time.Millisecond

// watch calls onChange whenever the file is written or replaced, until stop is closed.
// The directory is watched rather than the file so that editors which
// replace the file on save are noticed too.
func (fetcher *fileConfigFetcher) watch(stop <-chan struct{}, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create file watcher: %w", err)
	}
	path := filepath.Clean(fetcher.path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("cannot watch local config file %s: %w", fetcher.path, err)
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			var timerC <-chan time.Time
			if timer != nil {
				timerC = timer.C
			}
			select {
			case <-stop:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(fileWatchDebounce)
					continue
				}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(fileWatchDebounce)
			case <-timerC:
				timer = nil
				fetcher.logger.Debugf("Local config file %s changed.", fetcher.path)
				onChange()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fetcher.logger.Warnf("Watching the local config file failed: %v.", err)
			}
		}
	}()
	return nil
}
