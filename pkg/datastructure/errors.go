package datastructure

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownNode  = errors.New("unknown node")
	ErrInvalidGraph = errors.New("invalid graph")
)

// UnknownNodeError is returned when a query names a node id absent from the graph.
type UnknownNodeError struct {
	ID NodeID
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %d", e.ID)
}

func (e *UnknownNodeError) Unwrap() error {
	return ErrUnknownNode
}
