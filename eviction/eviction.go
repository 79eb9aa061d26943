package eviction

import (
	"github.com/jmgilman/go/errors"
)

/*
This file defines how the capacity decorator picks what to remove when it runs out of space.
*/

/*
Policy is the interface an eviction order must follow.

The bounded store tells the policy about every newly inserted key and asks it
for the next candidate when it is over capacity. Candidates may already be
gone from the store; the bounded store skips those silently.
*/
type Policy[K comparable] interface {

	// OnPut is called when a key that was not populated gets a value.
	OnPut(K)

	// Evict returns the next eviction candidate, or false when there is none.
	Evict() (K, bool)

	// Len returns the number of queued candidates, dead ones included.
	Len() int
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// FIFO (First In First Out): Evicts the oldest inserted key, regardless of access.
	FIFO PolicyType = "FIFO"
)

// NewPolicy is a small factory function.
// Given a PolicyType, it creates the correct eviction policy.
func NewPolicy[K comparable](t PolicyType) (Policy[K], error) {
	switch t {
	case FIFO, "":
		return newFIFO[K](), nil
	default:
		err := errors.Newf(errors.CodeInvalidConfig, "unknown eviction policy %q", t)
		return nil, errors.WithContext(err, "policy", string(t))
	}
}
