package graph

import (
	"fmt"

	"github.com/dukex/propflow/pkg/models"
)

// ApplyNodeChanges applies a batch of canvas deltas atomically. Removals and their edge
// cascades are computed against the pre-batch node set and applied together, so mutually
// connected nodes removed in one batch never leave dangling edges behind. A change with an
// unsupported type rejects the whole batch; changes for unknown ids are skipped.
func (s *Store) ApplyNodeChanges(changes []models.NodeChange) error {
	for _, change := range changes {
		switch change.Type {
		case models.ChangeTypePosition, models.ChangeTypeDimensions, models.ChangeTypeSelect, models.ChangeTypeRemove:
		default:
			return newError("ApplyNodeChanges", change.ID, fmt.Errorf("%w: %q", ErrInvalidChange, change.Type))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]bool)

	for _, change := range changes {
		if change.Type == models.ChangeTypeRemove && s.nodeIndex(change.ID) >= 0 {
			removed[change.ID] = true
		}
	}

	mutated := len(removed) > 0

	for _, change := range changes {
		if removed[change.ID] {
			continue
		}

		idx := s.nodeIndex(change.ID)
		if idx < 0 {
			s.logger.Debug("Skipping change for unknown node", "node_id", change.ID, "type", change.Type)

			continue
		}

		switch change.Type {
		case models.ChangeTypePosition:
			if change.Position != nil {
				s.nodes[idx].Position = *change.Position
				mutated = true
			}
		case models.ChangeTypeSelect:
			if change.Selected {
				s.selectedNodeID = change.ID
				s.selectedEdgeID = ""
			} else if s.selectedNodeID == change.ID {
				s.selectedNodeID = ""
			}
		case models.ChangeTypeDimensions, models.ChangeTypeRemove:
			// Dimensions are measured by the canvas and not stored.
		}
	}

	s.removeNodes(removed)

	if mutated {
		s.touch()
	}

	return nil
}

// ApplyEdgeChanges applies a batch of edge deltas atomically.
func (s *Store) ApplyEdgeChanges(changes []models.EdgeChange) error {
	for _, change := range changes {
		switch change.Type {
		case models.ChangeTypeSelect, models.ChangeTypeRemove:
		default:
			return newError("ApplyEdgeChanges", change.ID, fmt.Errorf("%w: %q", ErrInvalidChange, change.Type))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make(map[string]bool)

	for _, change := range changes {
		if change.Type == models.ChangeTypeRemove && s.edgeIndex(change.ID) >= 0 {
			removed[change.ID] = true
		}
	}

	for _, change := range changes {
		if change.Type != models.ChangeTypeSelect || removed[change.ID] {
			continue
		}

		if s.edgeIndex(change.ID) < 0 {
			s.logger.Debug("Skipping change for unknown edge", "edge_id", change.ID)

			continue
		}

		if change.Selected {
			s.selectedEdgeID = change.ID
			s.selectedNodeID = ""
		} else if s.selectedEdgeID == change.ID {
			s.selectedEdgeID = ""
		}
	}

	if len(removed) > 0 {
		s.removeEdges(removed)
		s.touch()
	}

	return nil
}
