// Package services provides the editor sessions and the stored workflow operations behind
// the HTTP API.
package services

import (
	"errors"
	"strings"

	"github.com/dukex/propflow/pkg/catalog"
	"github.com/dukex/propflow/pkg/graph"
	"github.com/dukex/propflow/pkg/persistence"
	"github.com/dukex/propflow/pkg/templates"
	"github.com/dukex/propflow/pkg/validation"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrValidationFailed = errors.New("workflow validation failed")

	// Business Logic Conflicts (409 Conflict).
	ErrSaveInProgress = errors.New("save already in progress")

	// Not Found (404).
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError carries the validator result that blocked a save.
type ValidationError struct {
	Result validation.Result
}

func (e *ValidationError) Error() string {
	messages := e.Result.Messages()
	if len(messages) == 0 {
		return ErrValidationFailed.Error()
	}

	return ErrValidationFailed.Error() + ": " + strings.Join(messages, " ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, catalog.ErrUnknownSubtype) ||
		errors.Is(err, catalog.ErrInvalidConfig) ||
		errors.Is(err, graph.ErrInvalidConnection) ||
		errors.Is(err, graph.ErrInvalidCategory) ||
		errors.Is(err, graph.ErrInvalidChange) ||
		errors.Is(err, graph.ErrMalformedConfig) ||
		errors.Is(err, persistence.ErrInvalidWorkflowID)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSaveInProgress) ||
		errors.Is(err, graph.ErrDuplicateEdge)
}

// IsNotFound checks if an error references a session, node, edge, template or stored
// workflow that does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		graph.IsNotFound(err) ||
		errors.Is(err, templates.ErrTemplateNotFound) ||
		persistence.IsWorkflowNotFound(err)
}
