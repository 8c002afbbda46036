package configcat

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// TimeoutError is returned when a blocking wait on an asynchronous
// operation gives up before the operation completes. The operation
// itself keeps running.
type TimeoutError struct {
	Timeout time.Duration
}

// Error returns with the error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %v", e.Timeout)
}

// async describes an object which used to control asynchronous operations.
// Usage:
//
//	async := newAsync()
//	async.accept(func() {
//	    fmt.Print("operation completed")
//	}).accept(func() {
//	    fmt.Print("chained operation completed")
//	})
//	go func() { async.complete() }()
type async struct {
	state       uint32
	completions []func()
	done        chan struct{}
	mu          sync.Mutex
}

// newAsync initializes a new async object.
func newAsync() *async {
	return &async{state: pending, done: make(chan struct{})}
}

// asCompletedAsync creates an already completed async object.
func asCompletedAsync() *async {
	async := newAsync()
	async.complete()
	return async
}

// isCompleted returns true if the async operation is marked as completed, otherwise false.
func (async *async) isCompleted() bool {
	return atomic.LoadUint32(&async.state) == completed
}

// isPending returns true if the async operation is running, otherwise false.
func (async *async) isPending() bool {
	return atomic.LoadUint32(&async.state) == pending
}

// accept subscribes a callback function called when the async operation completed.
// If the operation is already completed, the callback is invoked immediately
// on the calling goroutine. Callbacks registered while pending are invoked
// in registration order on the completing goroutine.
func (async *async) accept(completion func()) *async {
	async.mu.Lock()
	if async.state == pending {
		async.completions = append(async.completions, completion)
		async.mu.Unlock()
		return async
	}
	async.mu.Unlock()
	completion()
	return async
}

// composeAsync calls completion when the async operation completed and
// returns an asyncResult that completes with the result completion returns.
func composeAsync[T any](async *async, completion func() *asyncResult[T]) *asyncResult[T] {
	result := newAsyncResult[T]()
	async.accept(func() {
		completion().accept(func(value T) {
			result.complete(value)
		})
	})
	return result
}

// complete moves the async operation into the completed state.
// Only the first call has an effect; it reports whether this call did
// the completion.
func (async *async) complete() bool {
	return async.completeWith(nil)
}

// completeWith runs set while holding the lock right before the state
// transition, so that values written by set are visible to everyone
// observing the completed state.
func (async *async) completeWith(set func()) bool {
	async.mu.Lock()
	if async.state != pending {
		async.mu.Unlock()
		return false
	}
	if set != nil {
		set()
	}
	atomic.StoreUint32(&async.state, completed)
	completions := async.completions
	async.completions = nil
	close(async.done)
	async.mu.Unlock()

	for _, comp := range completions {
		comp()
	}
	return true
}

// wait blocks until the async operation is completed.
func (async *async) wait() {
	<-async.done
}

// waitOrTimeout blocks until the async operation is completed or until
// the given timeout duration expires. A non-positive duration waits without limit.
func (async *async) waitOrTimeout(duration time.Duration) error {
	if duration <= 0 {
		async.wait()
		return nil
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		if async.isCompleted() {
			return nil
		}
		return &TimeoutError{Timeout: duration}
	case <-async.done:
		return nil
	}
}
