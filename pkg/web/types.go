package web

import (
	"github.com/dukex/propflow/pkg/graph"
	"github.com/dukex/propflow/pkg/models"
)

// SetWorkflowRequest replaces the workflow of a session.
type SetWorkflowRequest struct {
	ID          *string        `json:"id"`
	Name        string         `json:"name"        validate:"max=255"`
	Description string         `json:"description"`
	ToolID      string         `json:"toolId"      validate:"max=64"`
	Nodes       []*models.Node `json:"nodes"       validate:"dive"`
	Edges       []*models.Edge `json:"edges"       validate:"dive"`
}

func (r SetWorkflowRequest) workflow() models.WorkflowInit {
	return models.WorkflowInit{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		ToolID:      r.ToolID,
		Nodes:       r.Nodes,
		Edges:       r.Edges,
	}
}

// UpdateMetadataRequest renames or recategorizes the workflow of a session.
type UpdateMetadataRequest struct {
	Name        string `json:"name"        validate:"required,max=255"`
	Description string `json:"description"`
	ToolID      string `json:"toolId"      validate:"max=64"`
}

// AddNodeRequest adds a node to the canvas. When only a subtype is given the node is
// built from the catalog entry.
type AddNodeRequest struct {
	Type        string              `json:"type"`
	Category    models.CategoryType `json:"category"    validate:"omitempty,oneof=trigger action logic integration"`
	Subtype     string              `json:"subtype"     validate:"required"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Color       string              `json:"color"`
	Position    models.Position     `json:"position"`
	Config      map[string]any      `json:"config"`
}

func (r AddNodeRequest) fromCatalog() bool {
	return r.Category == ""
}

func (r AddNodeRequest) input() models.NodeInput {
	return models.NodeInput{
		Type:        r.Type,
		Position:    r.Position,
		Category:    r.Category,
		Subtype:     r.Subtype,
		Label:       r.Label,
		Description: r.Description,
		Icon:        r.Icon,
		Color:       r.Color,
		Config:      r.Config,
	}
}

// UpdateNodeRequest is a partial update of a node. Config keys are merged.
type UpdateNodeRequest struct {
	Label       *string        `json:"label,omitempty"       validate:"omitempty,max=255"`
	Description *string        `json:"description,omitempty"`
	Icon        *string        `json:"icon,omitempty"`
	Color       *string        `json:"color,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

func (r UpdateNodeRequest) patch() models.NodePatch {
	return models.NodePatch{
		Label:       r.Label,
		Description: r.Description,
		Icon:        r.Icon,
		Color:       r.Color,
		Config:      r.Config,
	}
}

// ConnectRequest creates an edge between two nodes.
type ConnectRequest struct {
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Label        string `json:"label,omitempty"`
	Condition    string `json:"condition,omitempty"`
}

func (r ConnectRequest) connection() models.Connection {
	conn := models.Connection{
		Source:       r.Source,
		Target:       r.Target,
		SourceHandle: r.SourceHandle,
		TargetHandle: r.TargetHandle,
	}

	if r.Label != "" || r.Condition != "" {
		conn.Data = &models.EdgeData{Label: r.Label, Condition: r.Condition}
	}

	return conn
}

// NodeChangesRequest is a batch of canvas deltas on nodes.
type NodeChangesRequest struct {
	Changes []models.NodeChange `json:"changes" validate:"required,dive"`
}

// EdgeChangesRequest is a batch of canvas deltas on edges.
type EdgeChangesRequest struct {
	Changes []models.EdgeChange `json:"changes" validate:"required,dive"`
}

// SelectionRequest selects a node, an edge or, when empty, nothing.
type SelectionRequest struct {
	NodeID string `json:"nodeId,omitempty" validate:"excluded_with=EdgeID"`
	EdgeID string `json:"edgeId,omitempty"`
}

// ExecutionLogRequest appends a diagnostic entry to the execution log.
type ExecutionLogRequest struct {
	NodeID  string          `json:"nodeId,omitempty"`
	Level   models.LogLevel `json:"level,omitempty"  validate:"omitempty,oneof=info success warning error"`
	Message string          `json:"message"          validate:"required"`
	Data    map[string]any  `json:"data,omitempty"`
}

func (r ExecutionLogRequest) entry() models.ExecutionLog {
	return models.ExecutionLog{
		NodeID:  r.NodeID,
		Level:   r.Level,
		Message: r.Message,
		Data:    r.Data,
	}
}

// SessionResponse describes an editor session and its current state.
type SessionResponse struct {
	ID    string      `json:"id"`
	State graph.State `json:"state"`
}

// SaveResponse is returned after a workflow was persisted.
type SaveResponse struct {
	WorkflowID string      `json:"workflowId"`
	State      graph.State `json:"state"`
}
