package configcat

import (
	"errors"
	"fmt"
)

// FetchStatus describes the fetch response statuses.
type FetchStatus int

const (
	// Fetched indicates that a new configuration was fetched.
	Fetched FetchStatus = 0
	// NotModified indicates that the current configuration is not modified.
	NotModified FetchStatus = 1
	// Failure indicates that the current configuration fetch is failed.
	Failure FetchStatus = 2
)

func (status FetchStatus) String() string {
	switch status {
	case Fetched:
		return "fetched"
	case NotModified:
		return "not_modified"
	case Failure:
		return "failure"
	}
	return fmt.Sprintf("FetchStatus(%d)", int(status))
}

// FetchErrorKind classifies a failed configuration fetch.
type FetchErrorKind int

const (
	// FetchErrTransport means the request could not be made or the
	// response could not be read (network or I/O failure).
	FetchErrTransport FetchErrorKind = iota
	// FetchErrHTTPStatus means the server answered with an unexpected status code.
	FetchErrHTTPStatus
	// FetchErrInvalidBody means the fetched document is not a valid configuration.
	FetchErrInvalidBody
	// FetchErrUnavailable means the fetch was not attempted because
	// too many previous attempts failed.
	FetchErrUnavailable
)

var fetchErrorKindStrings = []string{
	FetchErrTransport:   "transport",
	FetchErrHTTPStatus:  "http status",
	FetchErrInvalidBody: "invalid body",
	FetchErrUnavailable: "unavailable",
}

func (kind FetchErrorKind) String() string {
	if kind < 0 || int(kind) >= len(fetchErrorKindStrings) {
		return fmt.Sprintf("FetchErrorKind(%d)", int(kind))
	}
	return fetchErrorKindStrings[kind]
}

// FetchError describes why a configuration fetch failed.
type FetchError struct {
	Kind FetchErrorKind
	// StatusCode holds the HTTP status code for FetchErrHTTPStatus errors.
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == FetchErrHTTPStatus:
		return fmt.Sprintf("config fetch failed: unexpected HTTP status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("config fetch failed (%v): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("config fetch failed (%v)", e.Kind)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrClientClosed is reported by refresh operations on a closed client.
var ErrClientClosed = errors.New("configcat: client is closed")

// fetchResponse represents a configuration fetch response.
type fetchResponse struct {
	status FetchStatus
	body   string
	eTag   string
	err    *FetchError
}

func failedFetch(kind FetchErrorKind, err error) fetchResponse {
	return fetchResponse{status: Failure, err: &FetchError{Kind: kind, Err: err}}
}

// isFailed returns true if the fetch is failed, otherwise false.
func (response fetchResponse) isFailed() bool {
	return response.status == Failure
}

// isNotModified returns true if the fetch resulted a 304 Not Modified code, otherwise false.
func (response fetchResponse) isNotModified() bool {
	return response.status == NotModified
}

// isFetched returns true if a new configuration value was fetched, otherwise false.
func (response fetchResponse) isFetched() bool {
	return response.status == Fetched
}

// fetchOutcome is what a policy learns from a fetch attempt: the best
// configuration known after the attempt and the reason the attempt
// failed, if it did.
type fetchOutcome struct {
	config string
	err    error
}
