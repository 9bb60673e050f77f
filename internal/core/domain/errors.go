package domain

import (
	"errors"
	"fmt"
)

// FailureReason classifies why a provider call produced no usable route.
// Callers branch on the reason instead of inspecting nil results.
type FailureReason string

const (
	// FailureInvalidInput covers requests rejected before any network
	// call: too few points, an empty or malformed track file.
	FailureInvalidInput FailureReason = "invalid_input"

	// FailureTransport covers network errors, non-2xx statuses and
	// provider-reported error codes. The prior route must be retained.
	FailureTransport FailureReason = "transport"

	// FailureMalformedResponse covers bodies that did not parse.
	FailureMalformedResponse FailureReason = "malformed_response"

	// FailureEmptyResult covers responses that parsed but contained no
	// route to apply.
	FailureEmptyResult FailureReason = "empty_result"

	// FailureStale marks a result discarded because a newer point set
	// was issued while it was in flight. Never surfaced to the user.
	FailureStale FailureReason = "stale"
)

// ErrEmptyTrack rejects track files with zero tracks or zero points.
var ErrEmptyTrack = errors.New("track contains no points")

// ErrNotEnoughPoints rejects route requests with fewer than 2 points.
var ErrNotEnoughPoints = errors.New("route request needs at least 2 points")

// RouteError is a classified provider failure.
type RouteError struct {
	Reason   FailureReason
	Provider string
	Err      error
}

func (e *RouteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *RouteError) Unwrap() error { return e.Err }

// NewRouteError wraps err with a failure classification.
func NewRouteError(reason FailureReason, provider string, err error) *RouteError {
	return &RouteError{Reason: reason, Provider: provider, Err: err}
}

// ReasonOf extracts the failure classification from err, or "" when err is
// not a RouteError.
func ReasonOf(err error) FailureReason {
	var re *RouteError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
