package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/propflow/pkg/models"
	"github.com/dukex/propflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// WorkflowRepository keeps each workflow as a JSON string under <prefix>workflow:<id> and
// indexes ids in a sorted set scored by update time.
type WorkflowRepository struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
	now    func() time.Time
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(client goredis.UniversalClient, logger *slog.Logger, prefix string) *WorkflowRepository {
	return &WorkflowRepository{
		client: client,
		logger: logger,
		prefix: prefix,
		now:    time.Now,
	}
}

func (r *WorkflowRepository) key(id string) string {
	return r.prefix + "workflow:" + id
}

func (r *WorkflowRepository) indexKey() string {
	return r.prefix + "workflows"
}

// Save upserts a workflow and moves it to the front of the index.
func (r *WorkflowRepository) Save(ctx context.Context, record *models.WorkflowRecord) (string, error) {
	id, err := persistence.ResolveID(record)
	if err != nil {
		return "", persistence.NewWorkflowError("Save", "", err)
	}

	now := r.now().UTC()
	stored := persistence.StoredWorkflow{
		WorkflowRecord: persistence.WithID(record, id),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	existing, err := r.GetByID(ctx, id)

	switch {
	case err == nil:
		stored.CreatedAt = existing.CreatedAt
	case !persistence.IsWorkflowNotFound(err):
		return "", err
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow %s: %w", id, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, r.key(id), data, 0)
		pipe.ZAdd(ctx, r.indexKey(), goredis.Z{Score: float64(now.UnixMilli()), Member: id})

		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to save workflow %s: %w", id, err)
	}

	r.logger.DebugContext(ctx, "Workflow saved", "workflow_id", id)

	return id, nil
}

// GetByID returns a stored workflow.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*persistence.StoredWorkflow, error) {
	body, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", id, err)
	}

	var workflow persistence.StoredWorkflow

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", id, err)
	}

	return &workflow, nil
}

// List returns all workflows, most recently updated first. Index entries whose document
// has disappeared are skipped.
func (r *WorkflowRepository) List(ctx context.Context) ([]*persistence.StoredWorkflow, error) {
	ids, err := r.client.ZRevRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow index: %w", err)
	}

	workflows := make([]*persistence.StoredWorkflow, 0, len(ids))
	if len(ids) == 0 {
		return workflows, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workflows: %w", err)
	}

	for i, value := range values {
		body, ok := value.(string)
		if !ok {
			r.logger.WarnContext(ctx, "Workflow index entry without document", "workflow_id", ids[i])

			continue
		}

		var workflow persistence.StoredWorkflow

		if err := json.Unmarshal([]byte(body), &workflow); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", ids[i], err)
		}

		workflows = append(workflows, &workflow)
	}

	return workflows, nil
}

// Delete removes a workflow and its index entry.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	var deleted *goredis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.key(id))
		pipe.ZRem(ctx, r.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
