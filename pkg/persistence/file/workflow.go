package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dukex/propflow/pkg/models"
	"github.com/dukex/propflow/pkg/persistence"
)

// WorkflowRepository stores one JSON document per workflow under <root>/workflows.
type WorkflowRepository struct {
	root   string // File system root for storing workflows
	logger *slog.Logger
	mu     sync.RWMutex
	now    func() time.Time
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string, logger *slog.Logger) *WorkflowRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkflowRepository{
		root:   root,
		logger: logger.With("module", "file_workflow_repository"),
		now:    time.Now,
	}
}

func (wr *WorkflowRepository) dir() string {
	return filepath.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) path(workflowID string) string {
	return filepath.Join(wr.dir(), workflowID+".json")
}

// Save writes the record to <id>.json through a temporary file and rename, so readers
// never observe a partially written document.
func (wr *WorkflowRepository) Save(_ context.Context, record *models.WorkflowRecord) (string, error) {
	workflowID, err := persistence.ResolveID(record)
	if err != nil {
		return "", persistence.NewWorkflowError("Save", "", err)
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	if err := os.MkdirAll(wr.dir(), 0750); err != nil {
		return "", fmt.Errorf("failed to create workflows directory: %w", err)
	}

	now := wr.now().UTC()
	stored := persistence.StoredWorkflow{
		WorkflowRecord: persistence.WithID(record, workflowID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if existing, err := wr.read(workflowID); err == nil {
		stored.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, persistence.ErrWorkflowNotFound) {
		return "", err
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal workflow %s: %w", workflowID, err)
	}

	tmp, err := os.CreateTemp(wr.dir(), workflowID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for workflow %s: %w", workflowID, err)
	}

	defer func() {
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()

		return "", fmt.Errorf("failed to write workflow %s: %w", workflowID, err)
	}

	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write workflow %s: %w", workflowID, err)
	}

	if err := os.Rename(tmp.Name(), wr.path(workflowID)); err != nil {
		return "", fmt.Errorf("failed to save workflow %s: %w", workflowID, err)
	}

	wr.logger.Debug("Workflow saved", "workflow_id", workflowID, "nodes", len(stored.WorkflowData.Nodes))

	return workflowID, nil
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*persistence.StoredWorkflow, error) {
	if err := persistence.ValidateID(workflowID); err != nil {
		return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
	}

	wr.mu.RLock()
	defer wr.mu.RUnlock()

	return wr.read(workflowID)
}

func (wr *WorkflowRepository) read(workflowID string) (*persistence.StoredWorkflow, error) {
	body, err := os.ReadFile(wr.path(workflowID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, persistence.NewWorkflowError("GetByID", workflowID, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	var workflow persistence.StoredWorkflow

	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &workflow, nil
}

// List returns all workflows, most recently updated first.
func (wr *WorkflowRepository) List(_ context.Context) ([]*persistence.StoredWorkflow, error) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(wr.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	workflows := make([]*persistence.StoredWorkflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflow, err := wr.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.SliceStable(workflows, func(i, j int) bool {
		return workflows[i].UpdatedAt.After(workflows[j].UpdatedAt)
	})

	return workflows, nil
}

// Delete removes a workflow file.
func (wr *WorkflowRepository) Delete(_ context.Context, workflowID string) error {
	if err := persistence.ValidateID(workflowID); err != nil {
		return persistence.NewWorkflowError("Delete", workflowID, persistence.ErrWorkflowNotFound)
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	err := os.Remove(wr.path(workflowID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return persistence.NewWorkflowError("Delete", workflowID, persistence.ErrWorkflowNotFound)
		}

		return fmt.Errorf("failed to delete workflow %s: %w", workflowID, err)
	}

	return nil
}
