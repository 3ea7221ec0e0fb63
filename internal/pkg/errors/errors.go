package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrCycle indicates a prerequisite insertion that would make the
	// topic graph cyclic. The graph is left untouched when it is returned.
	ErrCycle = errors.New("prerequisite cycle")
	// ErrUpstreamUnavailable indicates an optional upstream (text
	// generation) failure. It is always recovered locally and never
	// surfaced as a request failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
