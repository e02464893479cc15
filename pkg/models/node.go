package models

import "slices"

// CategoryType represents the closed classification of a node.
type CategoryType string

const (
	CategoryTypeTrigger     CategoryType = "trigger"     // Starts a workflow (webhook, schedule, new lead, ...)
	CategoryTypeAction      CategoryType = "action"      // Does something (send email, create task, ...)
	CategoryTypeLogic       CategoryType = "logic"       // Routes the flow (condition, delay, split, ...)
	CategoryTypeIntegration CategoryType = "integration" // Talks to a third party (slack, http request, ...)
)

// Categories lists every node category in display order.
var Categories = []CategoryType{
	CategoryTypeTrigger,
	CategoryTypeAction,
	CategoryTypeLogic,
	CategoryTypeIntegration,
}

// Valid reports whether c is one of the known categories.
func (c CategoryType) Valid() bool {
	return slices.Contains(Categories, c)
}

// Position is the cosmetic canvas coordinate of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries everything about a node except its identity and placement.
type NodeData struct {
	Category    CategoryType   `json:"category"              validate:"required,oneof=trigger action logic integration"`
	Subtype     string         `json:"subtype"               validate:"required"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Color       string         `json:"color,omitempty"`
	Config      map[string]any `json:"config"`
}

// Node is a vertex of the workflow graph.
type Node struct {
	ID       string   `json:"id"       validate:"required"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// IsTrigger reports whether the node starts the workflow.
func (n *Node) IsTrigger() bool {
	return n.Data.Category == CategoryTypeTrigger
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := *n
	c.Data.Config = CloneConfig(n.Data.Config)

	return &c
}

// NodeInput is the creation payload produced by the catalog when a node is dropped on the canvas.
type NodeInput struct {
	Type        string         `json:"type,omitempty"`
	Position    Position       `json:"position"`
	Category    CategoryType   `json:"category"              validate:"required,oneof=trigger action logic integration"`
	Subtype     string         `json:"subtype"               validate:"required"`
	Label       string         `json:"label"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Color       string         `json:"color,omitempty"`
	Config      map[string]any `json:"config"`
}

// NodePatch is a partial update of a node's data. Nil fields are left untouched and
// Config keys are merged into the existing config.
type NodePatch struct {
	Label       *string        `json:"label,omitempty"`
	Description *string        `json:"description,omitempty"`
	Icon        *string        `json:"icon,omitempty"`
	Color       *string        `json:"color,omitempty"`
	Config      map[string]any `json:"config,omitempty"`
}

// CloneConfig deep-copies a node configuration so that snapshots never share nested
// maps or slices with the store.
func CloneConfig(config map[string]any) map[string]any {
	if config == nil {
		return nil
	}

	out := make(map[string]any, len(config))
	for k, v := range config {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneConfig(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}

		return out
	case []string:
		return slices.Clone(val)
	default:
		return val
	}
}
