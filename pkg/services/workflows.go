package services

import (
	"context"

	"github.com/dukex/propflow/pkg/persistence"
)

// Workflows exposes the stored workflows outside of an editor session.
type Workflows struct {
	persistence persistence.Persistence
}

// NewWorkflows creates a new stored workflow service.
func NewWorkflows(persistence persistence.Persistence) *Workflows {
	return &Workflows{
		persistence: persistence,
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflows) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns every stored workflow, most recently updated first.
func (w *Workflows) List(ctx context.Context) ([]*persistence.StoredWorkflow, error) {
	return w.persistence.WorkflowRepository().List(ctx)
}

func (w *Workflows) Get(ctx context.Context, workflowID string) (*persistence.StoredWorkflow, error) {
	return w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
}

func (w *Workflows) Delete(ctx context.Context, workflowID string) error {
	return w.persistence.WorkflowRepository().Delete(ctx, workflowID)
}
