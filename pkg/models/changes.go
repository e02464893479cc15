package models

// ChangeType identifies the kind of delta in a canvas batch change.
type ChangeType string

const (
	ChangeTypePosition   ChangeType = "position"
	ChangeTypeDimensions ChangeType = "dimensions"
	ChangeTypeSelect     ChangeType = "select"
	ChangeTypeRemove     ChangeType = "remove"
)

// NodeChange is one delta of a drag gesture or multi-select operation on nodes.
type NodeChange struct {
	Type     ChangeType `json:"type"               validate:"required,oneof=position dimensions select remove"`
	ID       string     `json:"id"                 validate:"required"`
	Position *Position  `json:"position,omitempty"`
	Dragging bool       `json:"dragging,omitempty"`
	Selected bool       `json:"selected,omitempty"`
}

// EdgeChange is one delta of a multi-select operation on edges.
type EdgeChange struct {
	Type     ChangeType `json:"type"               validate:"required,oneof=select remove"`
	ID       string     `json:"id"                 validate:"required"`
	Selected bool       `json:"selected,omitempty"`
}
