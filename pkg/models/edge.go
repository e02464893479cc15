package models

// EdgeData describes why an edge exists, e.g. the "true" branch of a condition.
type EdgeData struct {
	Label     string `json:"label,omitempty"`
	Condition string `json:"condition,omitempty"`
}

// Edge is a directed connection between two nodes, optionally bound to named ports.
type Edge struct {
	ID           string    `json:"id"                     validate:"required"`
	Source       string    `json:"source"                 validate:"required"`
	Target       string    `json:"target"                 validate:"required"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Data         *EdgeData `json:"data,omitempty"`
}

// Clone returns a deep copy of the edge.
func (e *Edge) Clone() *Edge {
	if e == nil {
		return nil
	}

	c := *e
	if e.Data != nil {
		data := *e.Data
		c.Data = &data
	}

	return &c
}

// Connection is the payload the canvas sends when a drag-to-connect gesture completes.
type Connection struct {
	Source       string    `json:"source"`
	Target       string    `json:"target"`
	SourceHandle string    `json:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty"`
	Data         *EdgeData `json:"data,omitempty"`
}

// EdgePatch is a partial update of an edge. Nil fields are left untouched.
type EdgePatch struct {
	SourceHandle *string `json:"sourceHandle,omitempty"`
	TargetHandle *string `json:"targetHandle,omitempty"`
	Label        *string `json:"label,omitempty"`
	Condition    *string `json:"condition,omitempty"`
}
