package configcat

import (
	"time"
)

// asyncResult describes an object which used to control asynchronous operations with return value.
// Allows the chaining of these operations after each other.
// Usage:
//
//	async := newAsyncResult[string]()
//	applyResult(async, func(result string) int {
//	    fmt.Print(result)
//	    return len(result)
//	}).accept(func(length int) {
//	    fmt.Print("chained operation completed")
//	})
//	go func() { async.complete("success") }()
//
// The value is assigned once: after the first complete call the result
// never changes and later complete calls are ignored.
type asyncResult[T any] struct {
	result T
	*async
}

// newAsyncResult initializes a new async object with result.
func newAsyncResult[T any]() *asyncResult[T] {
	return &asyncResult[T]{async: newAsync()}
}

// asCompletedAsyncResult creates an already completed async object.
func asCompletedAsyncResult[T any](result T) *asyncResult[T] {
	async := newAsyncResult[T]()
	async.complete(result)
	return async
}

// accept subscribes a callback function which gets the operation result as
// argument and called when the async operation completed. Returns the
// underlying async object. For example:
//
//	async.accept(func(result string) {
//	    fmt.Print(result)
//	})
func (r *asyncResult[T]) accept(completion func(result T)) *async {
	return r.async.accept(func() {
		completion(r.result)
	})
}

// applyResult subscribes a callback function which gets the operation result
// as argument and returns an asyncResult which completes with the value
// returned by the callback.
func applyResult[T, U any](source *asyncResult[T], completion func(result T) U) *asyncResult[U] {
	next := newAsyncResult[U]()
	source.accept(func(result T) {
		next.complete(completion(result))
	})
	return next
}

// composeResult is like applyResult except that the callback itself
// returns an asyncResult, whose result is passed on once it completes.
func composeResult[T, U any](source *asyncResult[T], completion func(result T) *asyncResult[U]) *asyncResult[U] {
	next := newAsyncResult[U]()
	source.accept(func(result T) {
		completion(result).accept(func(value U) {
			next.complete(value)
		})
	})
	return next
}

// complete moves the async operation into the completed state with the given result.
// It returns false, leaving the stored result untouched, when the
// operation has already been completed.
func (r *asyncResult[T]) complete(result T) bool {
	return r.async.completeWith(func() {
		r.result = result
	})
}

// mustComplete is like complete but panics on a second completion.
func (r *asyncResult[T]) mustComplete(result T) {
	if !r.complete(result) {
		panic("configcat: async result completed more than once")
	}
}

// get blocks until the async operation is completed,
// then returns the result of the operation.
func (r *asyncResult[T]) get() T {
	<-r.done
	return r.result
}

// tryGet returns the result without blocking if the operation is completed.
func (r *asyncResult[T]) tryGet() (T, bool) {
	if !r.isCompleted() {
		var zero T
		return zero, false
	}
	return r.get(), true
}

// getOrTimeout blocks until the async operation is completed or until
// the given timeout duration expires, then returns the result of the operation.
// A non-positive duration waits without limit.
func (r *asyncResult[T]) getOrTimeout(duration time.Duration) (T, error) {
	if err := r.waitOrTimeout(duration); err != nil {
		var zero T
		return zero, err
	}
	return r.result, nil
}
