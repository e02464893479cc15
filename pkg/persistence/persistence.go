// Package persistence provides the storage abstraction for saved workflows.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/propflow/pkg/models"
)

// StoredWorkflow is a saved workflow record with its storage timestamps.
type StoredWorkflow struct {
	models.WorkflowRecord

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkflowRepository stores workflow records in the persisted wire format.
type WorkflowRepository interface {
	// Save creates the workflow when record.ID is nil, otherwise upserts it, and returns
	// the id the workflow is stored under. record is not modified.
	Save(ctx context.Context, record *models.WorkflowRecord) (string, error)
	GetByID(ctx context.Context, id string) (*StoredWorkflow, error)
	// List returns every stored workflow, most recently updated first.
	List(ctx context.Context) ([]*StoredWorkflow, error)
	Delete(ctx context.Context, id string) error
}

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
