package graphbuilder

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInput = errors.New("malformed input")
	ErrEmptyGraph     = errors.New("no traversable edges")
)

// MalformedInputError points at the primitive that made the input unusable.
type MalformedInputError struct {
	WayID  int64
	NodeID int64
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.WayID != 0 {
		return fmt.Sprintf("malformed input: way %d, node %d: %s", e.WayID, e.NodeID, e.Reason)
	}
	return fmt.Sprintf("malformed input: node %d: %s", e.NodeID, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}
