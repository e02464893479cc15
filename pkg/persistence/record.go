package persistence

import (
	"fmt"
	"regexp"

	"github.com/dukex/propflow/pkg/models"
	"github.com/google/uuid"
)

var workflowIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

// ResolveID returns the id record should be stored under, generating a UUIDv7 when the
// record has never been saved.
func ResolveID(record *models.WorkflowRecord) (string, error) {
	if record.ID == nil || *record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		return id.String(), nil
	}

	if err := ValidateID(*record.ID); err != nil {
		return "", err
	}

	return *record.ID, nil
}

// ValidateID rejects ids that are unsafe as file names or storage keys.
func ValidateID(id string) error {
	if !workflowIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidWorkflowID, id)
	}

	return nil
}

// WithID returns a copy of record carrying id. Nil node and edge lists become empty so
// the stored JSON always has arrays.
func WithID(record *models.WorkflowRecord, id string) models.WorkflowRecord {
	stored := *record
	stored.ID = models.StringPtr(id)

	if stored.WorkflowData.Nodes == nil {
		stored.WorkflowData.Nodes = []*models.Node{}
	}

	if stored.WorkflowData.Edges == nil {
		stored.WorkflowData.Edges = []*models.Edge{}
	}

	return stored
}
