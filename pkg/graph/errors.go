package graph

import (
	"errors"
	"fmt"
)

// Standard graph store errors. A failing operation never mutates the store.
var (
	// ErrNodeNotFound indicates the referenced node is not part of the workflow.
	ErrNodeNotFound = errors.New("node not found")

	// ErrEdgeNotFound indicates the referenced edge is not part of the workflow.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrInvalidConnection indicates a connection without a source or target.
	ErrInvalidConnection = errors.New("connection requires a source and a target")

	// ErrDuplicateEdge indicates an identical connection already exists.
	ErrDuplicateEdge = errors.New("edge already exists")

	// ErrInvalidCategory indicates a node category outside trigger, action, logic and integration.
	ErrInvalidCategory = errors.New("invalid node category")

	// ErrInvalidChange indicates a batch change with an unsupported type.
	ErrInvalidChange = errors.New("invalid change")

	// ErrMalformedConfig indicates a raw node configuration that is not a JSON object.
	ErrMalformedConfig = errors.New("malformed node configuration")
)

// Error wraps a graph store error with the operation and the id it was applied to.
type Error struct {
	Op  string // Store operation (e.g. "UpdateNode", "DeleteEdge")
	ID  string // Node or edge id if applicable
	Err error
}

func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newError(op, id string, err error) *Error {
	return &Error{Op: op, ID: id, Err: err}
}

// IsNotFound checks if an error indicates a stale node or edge reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound) || errors.Is(err, ErrEdgeNotFound)
}
