package sampler

import (
	"fmt"
)

// SourceError attributes a failure raised while enumerating or sampling a
// source's ruptures to that source. In a batch of thousands of sources an
// anonymous numerical failure is undebuggable; the source id in the message
// makes it immediately attributable.
//
// The original error is preserved as the wrapped cause, so errors.Is and
// errors.As still see the point of origin.
type SourceError struct {
	// SourceID identifies the failing source.
	SourceID string

	// Err is the original failure.
	Err error
}

// Error follows the upstream message convention so operators can grep for it.
func (e *SourceError) Error() string {
	return fmt.Sprintf("An error occurred with source id=%s. Error: %s", e.SourceID, e.Err)
}

// Unwrap returns the original failure.
func (e *SourceError) Unwrap() error { return e.Err }

// InvariantError reports a violation of a structural precondition of the
// event-ID packing scheme. It indicates a configuration or
// combinatorial-scale error upstream and is fatal: identifiers are never
// silently truncated.
type InvariantError struct {
	// Serial is the offending rupture serial.
	Serial int64

	// Multiplicity is the offending event count, when relevant.
	Multiplicity int

	// Reason describes which precondition failed.
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("event id allocation invariant violated: %s (serial=%d, multiplicity=%d)",
		e.Reason, e.Serial, e.Multiplicity)
}
