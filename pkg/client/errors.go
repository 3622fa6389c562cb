package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks failures that mean the backend cannot be reached
	// or refused the request.
	ErrUnavailable = errors.New("generation backend unavailable")

	ErrMalformedResponse = errors.New("malformed response from generation backend")
	ErrInvalidRequest    = errors.New("invalid generation request")
)

// TransportError is a request that got no HTTP response at all
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

// StatusError is a non-2xx HTTP response
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnavailable
}
