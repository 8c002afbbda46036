package configcat

import "time"

// Hooks describes the events sent by Client. Hooks are called
// synchronously from the goroutine that completes a fetch, so they
// should return quickly.
type Hooks struct {
	// OnError is called when a configuration fetch fails.
	OnError func(err error)

	// OnConfigChanged is called when a configuration with a new content has been fetched.
	OnConfigChanged func()

	// OnFetch is called after every fetch attempt with its outcome and duration.
	OnFetch func(status FetchStatus, duration time.Duration)
}

func (hooks *Hooks) error(err error) {
	if hooks != nil && hooks.OnError != nil {
		hooks.OnError(err)
	}
}

func (hooks *Hooks) configChanged() {
	if hooks != nil && hooks.OnConfigChanged != nil {
		hooks.OnConfigChanged()
	}
}

func (hooks *Hooks) fetch(status FetchStatus, duration time.Duration) {
	if hooks != nil && hooks.OnFetch != nil {
		hooks.OnFetch(status, duration)
	}
}
