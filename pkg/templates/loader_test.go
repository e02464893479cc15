package templates_test

import (
	"testing"
	"testing/fstest"

	"github.com/dukex/propflow/pkg/catalog"
	"github.com/dukex/propflow/pkg/graph"
	"github.com/dukex/propflow/pkg/models"
	"github.com/dukex/propflow/pkg/templates"
	"github.com/dukex/propflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultLoader(t *testing.T) *templates.Loader {
	t.Helper()

	loader, err := templates.NewDefaultLoader()
	require.NoError(t, err)

	return loader
}

func TestList_ShippedTemplates(t *testing.T) {
	ids := make([]string, 0)
	for _, summary := range defaultLoader(t).List() {
		ids = append(ids, summary.ID)
		assert.NotEmpty(t, summary.Name)
		assert.Positive(t, summary.NodeCount)
	}

	assert.Equal(t, []string{
		"default",
		"maintenance-request",
		"new-lead-follow-up",
		"rent-reminder",
		"voice-note-transcription",
	}, ids)
}

func TestLoad_ResetsIdentity(t *testing.T) {
	loader := defaultLoader(t)

	input, err := loader.Load("default")
	require.NoError(t, err)
	assert.Nil(t, input.ID)
	require.Len(t, input.Nodes, 2)
	require.Len(t, input.Edges, 1)

	store := graph.NewStore()
	require.NoError(t, store.SelectNode(""))

	_, err = store.AddNode(models.NodeInput{Category: models.CategoryTypeAction, Subtype: "send_sms"})
	require.NoError(t, err)
	assert.True(t, store.Dirty())

	store.SetWorkflow(input)

	snapshot := store.Snapshot()
	assert.Nil(t, snapshot.ID)
	assert.False(t, snapshot.Dirty)
	assert.Len(t, snapshot.Nodes, 2)
	assert.Len(t, snapshot.Edges, 1)
	assert.Equal(t, "trigger-1", snapshot.Nodes[0].ID)
	assert.Equal(t, models.DefaultNodeType, snapshot.Nodes[0].Type)
	assert.Equal(t, models.Position{X: 250, Y: 50}, snapshot.Nodes[0].Position)
	assert.Nil(t, store.SelectedNode())
}

func TestLoad_ReturnsIndependentCopies(t *testing.T) {
	loader := defaultLoader(t)

	first, err := loader.Load("default")
	require.NoError(t, err)

	first.Nodes[0].Data.Label = "changed"
	first.Nodes[1].Data.Config["subject"] = "changed"
	first.Edges[0].Target = "elsewhere"

	second, err := loader.Load("default")
	require.NoError(t, err)
	assert.Equal(t, "New Lead", second.Nodes[0].Data.Label)
	assert.Equal(t, "Thanks for your interest", second.Nodes[1].Data.Config["subject"])
	assert.Equal(t, "action-1", second.Edges[0].Target)
}

func TestLoad_UnknownTemplate(t *testing.T) {
	loader := defaultLoader(t)

	_, err := loader.Load("eviction-notice")
	assert.ErrorIs(t, err, templates.ErrTemplateNotFound)
	assert.False(t, loader.Has("eviction-notice"))
	assert.True(t, loader.Has("default"))
}

func TestShippedTemplates_AreValid(t *testing.T) {
	loader := defaultLoader(t)
	validator := validation.New(nil)
	nodeCatalog := catalog.Default()

	for _, summary := range loader.List() {
		t.Run(summary.ID, func(t *testing.T) {
			snapshot, err := loader.Load(summary.ID)
			require.NoError(t, err)

			result := validator.Validate(models.Workflow{Nodes: snapshot.Nodes, Edges: snapshot.Edges})
			assert.True(t, result.IsValid, "errors: %v", result.Messages())
			assert.Empty(t, result.Warnings)

			for _, node := range snapshot.Nodes {
				def, err := nodeCatalog.Get(node.Data.Subtype)
				require.NoError(t, err)
				assert.Equal(t, def.Category, node.Data.Category, "node %s", node.ID)
				assert.NoError(t, nodeCatalog.ValidateConfig(node.Data.Subtype, node.Data.Config), "node %s", node.ID)
			}
		})
	}
}

func TestNewLoader(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr bool
		wantIDs []string
	}{
		{
			name: "id falls back to file name",
			files: fstest.MapFS{
				"welcome.yaml": {Data: []byte("name: Welcome\nnodes:\n  - id: t\n    category: trigger\n    subtype: webhook\n")},
			},
			wantIDs: []string{"welcome"},
		},
		{
			name: "duplicate id",
			files: fstest.MapFS{
				"a.yaml": {Data: []byte("id: same\n")},
				"b.yaml": {Data: []byte("id: same\n")},
			},
			wantErr: true,
		},
		{
			name: "malformed yaml",
			files: fstest.MapFS{
				"broken.yaml": {Data: []byte("nodes: [\n")},
			},
			wantErr: true,
		},
		{
			name: "non yaml files are ignored",
			files: fstest.MapFS{
				"README.md": {Data: []byte("# templates")},
			},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := templates.NewLoader(tt.files)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)

			ids := make([]string, 0)
			for _, summary := range loader.List() {
				ids = append(ids, summary.ID)
			}

			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestLoad_EdgeDataFromYAML(t *testing.T) {
	snapshot, err := defaultLoader(t).Load("new-lead-follow-up")
	require.NoError(t, err)

	var branch *models.Edge
	for _, edge := range snapshot.Edges {
		if edge.ID == "logic-2-action-3" {
			branch = edge
		}
	}

	require.NotNil(t, branch)
	assert.Equal(t, "false", branch.SourceHandle)
	require.NotNil(t, branch.Data)
	assert.Equal(t, "No reply", branch.Data.Label)
}

func TestParse(t *testing.T) {
	snapshot, err := templates.Parse([]byte(`
name: Inline
nodes:
  - id: t1
    category: trigger
    subtype: new_lead
    label: New Lead
edges: []
`))
	require.NoError(t, err)

	assert.Nil(t, snapshot.ID)
	assert.Equal(t, "Inline", snapshot.Name)
	require.Len(t, snapshot.Nodes, 1)
	assert.Equal(t, models.DefaultNodeType, snapshot.Nodes[0].Type)
	assert.NotNil(t, snapshot.Nodes[0].Data.Config)

	_, err = templates.Parse([]byte("nodes: ["))
	require.Error(t, err)
}
