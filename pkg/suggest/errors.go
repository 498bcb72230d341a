package suggest

import (
	"errors"
	"fmt"
)

// Sentinel errors for coordinator misconfiguration and terminal lookup
// outcomes. None of these are retried by the coordinator; the caller may
// re-invoke on the next keystroke or when connectivity returns.
var (
	// ErrMissingClient means no API client was configured.
	ErrMissingClient = errors.New("suggest: no api client configured")
	// ErrMissingStore means no persistence store was configured.
	ErrMissingStore = errors.New("suggest: no store configured")
	// ErrHostnameUnavailable means the parent site hostname is empty.
	ErrHostnameUnavailable = errors.New("suggest: site hostname unavailable")
	// ErrNoResults means the cache is empty and the network is unreachable.
	ErrNoResults = errors.New("suggest: no results available")
	// ErrTimeout means the fetch exceeded the configured deadline.
	ErrTimeout = errors.New("suggest: fetch timed out")
)

// TransportError wraps a network-layer failure.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("suggest: transport failure: %v", e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// DecodeError wraps a malformed-payload failure.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("suggest: decoding payload: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// StoreError wraps a persistence failure during the replace transaction.
type StoreError struct {
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("suggest: persisting results: %v", e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }
