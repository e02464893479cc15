package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/propflow/pkg/models"
	"github.com/dukex/propflow/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations. The graph is kept as
// a JSONB document in the persisted wire format.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectWorkflow = `
		SELECT
			id
		  , name
		  , description
		  , tool_id
		  , workflow_data
		  , created_at
		  , updated_at
		FROM workflows
`

// List returns all workflows, most recently updated first.
func (r *WorkflowRepository) List(ctx context.Context) ([]*persistence.StoredWorkflow, error) {
	query := selectWorkflow + `
		WHERE deleted_at IS NULL
		ORDER BY updated_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	workflows := make([]*persistence.StoredWorkflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

// GetByID returns a workflow that has not been deleted.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*persistence.StoredWorkflow, error) {
	query := selectWorkflow + `
		WHERE id = $1 AND deleted_at IS NULL
	`

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save upserts a workflow. Saving a previously deleted id restores it.
func (r *WorkflowRepository) Save(ctx context.Context, record *models.WorkflowRecord) (string, error) {
	id, err := persistence.ResolveID(record)
	if err != nil {
		return "", persistence.NewWorkflowError("Save", "", err)
	}

	stored := persistence.WithID(record, id)

	data, err := json.Marshal(stored.WorkflowData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow data: %w", err)
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO workflows (id, name, description, tool_id, workflow_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name
		  , description = EXCLUDED.description
		  , tool_id = EXCLUDED.tool_id
		  , workflow_data = EXCLUDED.workflow_data
		  , updated_at = EXCLUDED.updated_at
		  , deleted_at = NULL
	`

	_, err = r.db.ExecContext(ctx, query, id, stored.Name, stored.Description, stored.ToolID, string(data), now)
	if err != nil {
		return "", fmt.Errorf("failed to save workflow %s: %w", id, err)
	}

	r.logger.DebugContext(ctx, "Workflow saved", "workflow_id", id, "nodes", len(stored.WorkflowData.Nodes))

	return id, nil
}

// Delete soft deletes a workflow by setting deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) scanWorkflow(row scanner) (*persistence.StoredWorkflow, error) {
	var (
		workflow persistence.StoredWorkflow
		id       string
		data     []byte
	)

	err := row.Scan(
		&id,
		&workflow.Name,
		&workflow.Description,
		&workflow.ToolID,
		&data,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.ID = &id

	if err := json.Unmarshal(data, &workflow.WorkflowData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow data %s: %w", id, err)
	}

	return &workflow, nil
}
