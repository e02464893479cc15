// Package models defines the core domain models for the visual workflow builder.
package models

// DefaultNodeType is the canvas renderer key assigned to nodes created without one.
const DefaultNodeType = "custom"

// Workflow is the aggregate root edited by a single editor session.
type Workflow struct {
	ID          *string `json:"id"` // nil until first persisted
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ToolID      string  `json:"toolId"` // tool category the workflow belongs to
	Nodes       []*Node `json:"nodes"       validate:"dive"`
	Edges       []*Edge `json:"edges"       validate:"dive"`
	Dirty       bool    `json:"dirty"`
}

// WorkflowInit is the snapshot accepted by the graph store when a workflow is loaded
// from storage or instantiated from a template.
type WorkflowInit struct {
	ID          *string `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ToolID      string  `json:"toolId"`
	Nodes       []*Node `json:"nodes"`
	Edges       []*Edge `json:"edges"`
}

// WorkflowData holds the graph part of a persisted workflow.
type WorkflowData struct {
	Nodes []*Node `json:"nodes" validate:"dive"`
	Edges []*Edge `json:"edges" validate:"dive"`
}

// WorkflowRecord is the representation handed to storage on save. Its JSON shape is the
// wire contract shared with previously saved workflows.
type WorkflowRecord struct {
	ID           *string      `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	ToolID       string       `json:"toolId"`
	WorkflowData WorkflowData `json:"workflowData"`
}

// Init converts a stored record into a store snapshot.
func (r *WorkflowRecord) Init() WorkflowInit {
	return WorkflowInit{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		ToolID:      r.ToolID,
		Nodes:       r.WorkflowData.Nodes,
		Edges:       r.WorkflowData.Edges,
	}
}

// Record converts the workflow into its persisted representation.
func (w *Workflow) Record() WorkflowRecord {
	nodes := w.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}

	edges := w.Edges
	if edges == nil {
		edges = []*Edge{}
	}

	return WorkflowRecord{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		ToolID:      w.ToolID,
		WorkflowData: WorkflowData{
			Nodes: nodes,
			Edges: edges,
		},
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
