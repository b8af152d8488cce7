package generation

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure so callers can pick the right
// user-visible message and decide whether a retry makes sense.
type Kind string

const (
	// KindTimeout marks a call that exceeded its wall-clock budget.
	KindTimeout Kind = "timeout"
	// KindServer marks a 5xx response from the inference endpoint.
	KindServer Kind = "server"
	// KindRateLimited marks a 429 response.
	KindRateLimited Kind = "rate_limited"
	// KindClient marks a non-retryable 4xx response (bad token, bad request).
	KindClient Kind = "client"
	// KindMalformed marks a response body that could not be normalized.
	KindMalformed Kind = "malformed"
)

// Error is the typed failure returned by the Client.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation: %s: %v", e.Kind, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("generation: %s (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("generation: %s", e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindServer, KindRateLimited:
		return true
	}
	return false
}

// AsError unwraps err into a *Error if one is present in the chain.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// KindOf extracts the Kind from an error, defaulting to KindServer for
// unclassified failures so callers never observe an empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if ge, ok := AsError(err); ok {
		return ge.Kind
	}
	return KindServer
}
