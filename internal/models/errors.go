package models

import (
	"errors"
	"fmt"
)

// Machine-readable error codes returned to clients alongside the message.
const (
	CodeDistanceExceeded  = "DISTANCE_EXCEEDED"
	CodeOutOfCoverage     = "OUT_OF_COVERAGE"
	CodeBranchNotFound    = "BRANCH_NOT_FOUND"
	CodeInvalidLocation   = "INVALID_LOCATION"
	CodeInvalidTransition = "INVALID_TRANSITION"
)

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a create collides with an existing record.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBranchNotFound is returned when a quote names a branch that does
	// not exist. Fatal to that request.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrInvalidLocation is returned for a malformed coordinate, or when a
	// quote carries neither a coordinate nor a saved address (or both).
	ErrInvalidLocation = errors.New("invalid delivery location")

	// ErrOutOfCoverage is returned when no branch can serve the given
	// point. Recoverable only by the user changing their location.
	ErrOutOfCoverage = errors.New("no branch covers this location")

	// ErrOrderAlreadyAssigned is returned when a partner tries to confirm
	// an order that is already bound to another partner. Never retried:
	// the order state has moved on.
	ErrOrderAlreadyAssigned = errors.New("order already assigned to a delivery partner")

	// ErrPermissionDenied is returned when device location access is refused.
	ErrPermissionDenied = errors.New("location permission denied")
)

// DistanceExceededError carries both the branch's coverage limit and the
// computed distance so the caller can render a precise message.
type DistanceExceededError struct {
	MaxDistanceKm float64
	DistanceKm    float64
}

func (e *DistanceExceededError) Error() string {
	return fmt.Sprintf("delivery point is %.1f km away, beyond the %.0f km coverage limit", e.DistanceKm, e.MaxDistanceKm)
}

// TransitionError reports an illegal order status transition. The stored
// order is never mutated when one of these is returned.
type TransitionError struct {
	From   OrderStatus
	To     OrderStatus
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// ErrorResponse is the JSON error envelope. MaxDistance and DistanceKm are
// only set for coverage failures.
type ErrorResponse struct {
	Code        string   `json:"code,omitempty"`
	Message     string   `json:"message"`
	MaxDistance *float64 `json:"max_distance,omitempty"`
	DistanceKm  *float64 `json:"distance_km,omitempty"`
}

// NewDistanceExceededResponse builds the response body for a coverage
// failure, preserving the numeric context.
func NewDistanceExceededResponse(e *DistanceExceededError) ErrorResponse {
	maxD, dist := e.MaxDistanceKm, e.DistanceKm
	return ErrorResponse{
		Code:        CodeDistanceExceeded,
		Message:     e.Error(),
		MaxDistance: &maxD,
		DistanceKm:  &dist,
	}
}
