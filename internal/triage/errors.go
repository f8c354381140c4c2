package triage

import "github.com/cockroachdb/errors"

var (
	// ErrBackendUnavailable marks any failure of the generative backend.
	// Process recovers from it by falling back to ClassifyHeuristic.
	ErrBackendUnavailable = errors.New("generative backend unavailable")

	// ErrInvalidInputType is returned when a record is not a mapping.
	ErrInvalidInputType = errors.New("invalid input type")

	// ErrEmptyTicket is returned for blank ticket text.
	ErrEmptyTicket = errors.New("ticket text cannot be empty")
)
