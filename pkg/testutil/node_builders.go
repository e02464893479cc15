// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/propflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test Node with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:       uuid.New().String(),
		Type:     models.DefaultNodeType,
		Position: models.Position{X: 100, Y: 200},
		Data: models.NodeData{
			Category:    models.CategoryTypeAction,
			Subtype:     "send_email",
			Label:       "Test Node",
			Description: "Sends a test email",
			Config:      map[string]any{"message": "test", "to": "agent@example.com"},
		},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a webhook trigger node.
func WithTriggerNode() func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Category = models.CategoryTypeTrigger
		n.Data.Subtype = "webhook"
		n.Data.Label = "Webhook"
		n.Data.Config = map[string]any{
			"path":   "/webhook/test",
			"method": "POST",
		}
	}
}

// WithCategory sets the node category and subtype.
func WithCategory(category models.CategoryType, subtype string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Category = category
		n.Data.Subtype = subtype
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Config = config
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.Node) {
	return func(n *models.Node) {
		n.Data.Label = label
	}
}

// WithPosition sets the node position.
func WithPosition(x, y float64) func(*models.Node) {
	return func(n *models.Node) {
		n.Position = models.Position{X: x, Y: y}
	}
}

// WithID sets the node ID.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// TriggerInput returns a creation payload for a webhook trigger.
func TriggerInput(label string) models.NodeInput {
	return models.NodeInput{
		Category:    models.CategoryTypeTrigger,
		Subtype:     "webhook",
		Label:       label,
		Description: "Starts on an incoming webhook",
		Icon:        "webhook",
		Color:       "#10b981",
		Config:      map[string]any{},
	}
}

// ActionInput returns a creation payload for a send-email action.
func ActionInput(label string) models.NodeInput {
	return models.NodeInput{
		Category:    models.CategoryTypeAction,
		Subtype:     "send_email",
		Label:       label,
		Description: "Sends an email",
		Icon:        "mail",
		Color:       "#3b82f6",
		Config:      map[string]any{},
	}
}

// CreateTestEdge creates an edge between two nodes.
func CreateTestEdge(sourceNodeID, targetNodeID string) *models.Edge {
	return &models.Edge{
		ID:     sourceNodeID + "-" + targetNodeID + "-" + uuid.New().String()[:8],
		Source: sourceNodeID,
		Target: targetNodeID,
	}
}

// CreateTestRecord creates a persisted workflow with a trigger wired to an action.
func CreateTestRecord() *models.WorkflowRecord {
	trigger := CreateTestNode(WithTriggerNode(), WithID("trigger-1"))
	action := CreateTestNode(WithID("action-1"), WithLabel("Email Agent"))

	return &models.WorkflowRecord{
		Name:        "Test Workflow",
		Description: "A workflow for testing",
		ToolID:      "leads",
		WorkflowData: models.WorkflowData{
			Nodes: []*models.Node{trigger, action},
			Edges: []*models.Edge{
				{ID: "trigger-1-action-1-a1b2c3d4", Source: "trigger-1", Target: "action-1"},
			},
		},
	}
}
