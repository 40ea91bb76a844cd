package routingalgorithm

import (
	"errors"
	"fmt"
)

var (
	ErrNoRoute           = errors.New("no route")
	ErrSearchAborted     = errors.New("search aborted")
	ErrStepLimitExceeded = errors.New("step limit exceeded")
)

// SearchAbortedError means the search gave up before proving anything,
// Cause is ErrStepLimitExceeded or the context error.
type SearchAbortedError struct {
	Expanded int
	Cause    error
}

func (e *SearchAbortedError) Error() string {
	return fmt.Sprintf("search aborted after %d expansions: %v", e.Expanded, e.Cause)
}

func (e *SearchAbortedError) Unwrap() []error {
	return []error{ErrSearchAborted, e.Cause}
}
