package models_test

import (
	"errors"
	"testing"

	"github.com/dukex/propflow/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryType_Valid(t *testing.T) {
	for _, category := range models.Categories {
		assert.True(t, category.Valid(), category)
	}

	assert.False(t, models.CategoryType("sensor").Valid())
	assert.False(t, models.CategoryType("").Valid())
}

func TestNode_Validation(t *testing.T) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	tests := []struct {
		name      string
		node      models.Node
		errFields []string
	}{
		{
			name: "valid node",
			node: models.Node{
				ID:   "n1",
				Type: models.DefaultNodeType,
				Data: models.NodeData{Category: models.CategoryTypeAction, Subtype: "send_email"},
			},
		},
		{
			name:      "missing id and subtype",
			node:      models.Node{Data: models.NodeData{Category: models.CategoryTypeLogic}},
			errFields: []string{"ID", "Subtype"},
		},
		{
			name:      "unknown category",
			node:      models.Node{ID: "n1", Data: models.NodeData{Category: "sensor", Subtype: "temperature"}},
			errFields: []string{"Category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.node)
			if len(tt.errFields) == 0 {
				assert.NoError(t, err)

				return
			}

			var validationErrors validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrors))

			fields := make([]string, 0, len(validationErrors))
			for _, fieldErr := range validationErrors {
				fields = append(fields, fieldErr.Field())
			}

			assert.ElementsMatch(t, tt.errFields, fields)
		})
	}
}

func TestNode_CloneIsDeep(t *testing.T) {
	node := &models.Node{
		ID: "n1",
		Data: models.NodeData{
			Category: models.CategoryTypeAction,
			Subtype:  "send_email",
			Config: map[string]any{
				"to":      "{{lead.email}}",
				"headers": map[string]any{"x-priority": "high"},
				"cc":      []any{"agent@example.com"},
				"tags":    []string{"welcome"},
			},
		},
	}

	clone := node.Clone()
	require.Equal(t, node, clone)

	clone.Data.Config["to"] = "someone@example.com"
	clone.Data.Config["headers"].(map[string]any)["x-priority"] = "low"
	clone.Data.Config["cc"].([]any)[0] = "other@example.com"
	clone.Data.Config["tags"].([]string)[0] = "changed"

	assert.Equal(t, "{{lead.email}}", node.Data.Config["to"])
	assert.Equal(t, "high", node.Data.Config["headers"].(map[string]any)["x-priority"])
	assert.Equal(t, "agent@example.com", node.Data.Config["cc"].([]any)[0])
	assert.Equal(t, "welcome", node.Data.Config["tags"].([]string)[0])

	var nilNode *models.Node
	assert.Nil(t, nilNode.Clone())
}

func TestEdge_CloneIsDeep(t *testing.T) {
	edge := &models.Edge{ID: "e1", Source: "a", Target: "b", Data: &models.EdgeData{Label: "Yes", Condition: "true"}}

	clone := edge.Clone()
	require.Equal(t, edge, clone)

	clone.Data.Label = "No"
	assert.Equal(t, "Yes", edge.Data.Label)

	assert.Nil(t, (&models.Edge{ID: "e2"}).Clone().Data)
}

func TestNode_IsTrigger(t *testing.T) {
	assert.True(t, (&models.Node{Data: models.NodeData{Category: models.CategoryTypeTrigger}}).IsTrigger())
	assert.False(t, (&models.Node{Data: models.NodeData{Category: models.CategoryTypeIntegration}}).IsTrigger())
}
