// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the identifier does not resolve to any record.
	ErrNotFound = errors.New("not found")

	// ErrSequenceRejected indicates a premature or repeated action against a
	// unit in a state that does not warrant fraud escalation.
	ErrSequenceRejected = errors.New("sequence rejected")

	// ErrAnomaly indicates a guard failure implying theft, diversion or
	// cloning; always paired with an alert and a counterfeit transition.
	ErrAnomaly = errors.New("integrity anomaly")

	// ErrStatusConflict indicates a conditional write lost against a
	// concurrent transition (expected status no longer current).
	ErrStatusConflict = errors.New("status conflict")

	// ErrUnauthorized indicates a credential lookup miss.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., a
	// generated identifier collided).
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotActive indicates a resolve attempt against an alert that is not
	// currently active.
	ErrNotActive = errors.New("not active")
)
