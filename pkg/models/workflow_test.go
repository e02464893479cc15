package models_test

import (
	"encoding/json"
	"testing"

	"github.com/dukex/propflow/pkg/models"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wireRecord() models.WorkflowRecord {
	workflow := models.Workflow{
		Name:        "New lead follow-up",
		Description: "Email the agent when a lead arrives",
		ToolID:      "leads",
		Nodes: []*models.Node{
			{
				ID:       "trigger-1",
				Type:     models.DefaultNodeType,
				Position: models.Position{X: 100, Y: 50},
				Data: models.NodeData{
					Category: models.CategoryTypeTrigger,
					Subtype:  "new_lead",
					Label:    "New Lead",
					Icon:     "user-plus",
					Color:    "#10b981",
					Config:   map[string]any{"source": "website"},
				},
			},
			{
				ID:       "condition-1",
				Type:     models.DefaultNodeType,
				Position: models.Position{X: 100, Y: 200},
				Data: models.NodeData{
					Category:    models.CategoryTypeLogic,
					Subtype:     "condition",
					Label:       "Has email?",
					Description: "Checks the lead email",
					Config:      map[string]any{"field": "email", "operator": "exists"},
				},
			},
		},
		Edges: []*models.Edge{
			{
				ID:           "trigger-1-condition-1-5f2a9c1e",
				Source:       "trigger-1",
				Target:       "condition-1",
				SourceHandle: "output",
				Data:         &models.EdgeData{Label: "true", Condition: "email != null"},
			},
		},
	}

	return workflow.Record()
}

func TestWorkflowRecord_WireFormat(t *testing.T) {
	record := wireRecord()

	data, err := json.MarshalIndent(record, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "workflow_record", data)
}

func TestWorkflowRecord_RoundTrip(t *testing.T) {
	record := wireRecord()
	record.ID = models.StringPtr("6b0f7c2e-1f5e-4f59-9d0e-8ad3b1f1c001")

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded models.WorkflowRecord
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, record, decoded)

	snapshot := decoded.Init()
	assert.Equal(t, record.ID, snapshot.ID)
	assert.Len(t, snapshot.Nodes, 2)
	assert.Len(t, snapshot.Edges, 1)
}

func TestWorkflow_RecordNeverEmitsNullArrays(t *testing.T) {
	workflow := models.Workflow{Name: "Empty"}

	data, err := json.Marshal(workflow.Record())
	require.NoError(t, err)

	assert.JSONEq(t, `{"id":null,"name":"Empty","description":"","toolId":"","workflowData":{"nodes":[],"edges":[]}}`, string(data))
}

func TestCloneConfig_DeepCopiesNestedValues(t *testing.T) {
	config := map[string]any{
		"headers": map[string]any{"X-Api-Key": "secret"},
		"rules":   []any{map[string]any{"field": "budget"}},
		"tags":    []string{"hot"},
	}

	clone := models.CloneConfig(config)
	clone["headers"].(map[string]any)["X-Api-Key"] = "changed"
	clone["rules"].([]any)[0].(map[string]any)["field"] = "changed"
	clone["tags"].([]string)[0] = "changed"

	assert.Equal(t, "secret", config["headers"].(map[string]any)["X-Api-Key"])
	assert.Equal(t, "budget", config["rules"].([]any)[0].(map[string]any)["field"])
	assert.Equal(t, "hot", config["tags"].([]string)[0])
	assert.Nil(t, models.CloneConfig(nil))
}
