package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/propflow/pkg/catalog"
	"github.com/dukex/propflow/pkg/graph"
	"github.com/dukex/propflow/pkg/models"
	"github.com/dukex/propflow/pkg/persistence/file"
	"github.com/dukex/propflow/pkg/services"
	"github.com/dukex/propflow/pkg/templates"
	"github.com/dukex/propflow/pkg/validation"
	"github.com/dukex/propflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	loader, err := templates.NewDefaultLoader()
	require.NoError(t, err)

	persistence := file.NewPersistence(nil, t.TempDir())

	sessions, err := services.NewSessions(services.Dependencies{
		Repository: persistence.WorkflowRepository(),
		Templates:  loader,
	})
	require.NoError(t, err)

	handlers := web.NewAPIHandlers(
		sessions,
		services.NewWorkflows(persistence),
		catalog.Default(),
		loader,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()
	handlers.RegisterRoutes(app)

	return app
}

// doRequest sends body as JSON, or verbatim when it is a string.
func doRequest(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))

	return v
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()

	status, body := doRequest(t, app, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, status)

	session := decode[web.SessionResponse](t, body)
	require.NotEmpty(t, session.ID)
	assert.Empty(t, session.State.Workflow.Nodes)

	return session.ID
}

func TestAPIHandlers_EditSaveAndLoad(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)
	base := "/sessions/" + sid

	status, body := doRequest(t, app, http.MethodPost, base+"/nodes", web.AddNodeRequest{
		Subtype:  catalog.SubtypeNewLead,
		Position: models.Position{X: 250, Y: 50},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	trigger := decode[models.Node](t, body)
	assert.Equal(t, models.CategoryTypeTrigger, trigger.Data.Category)
	assert.Equal(t, "New Lead", trigger.Data.Label)

	status, body = doRequest(t, app, http.MethodPost, base+"/nodes", web.AddNodeRequest{
		Category: models.CategoryTypeAction,
		Subtype:  catalog.SubtypeSendSMS,
		Label:    "Text the lead",
		Config:   map[string]any{"message": "Thanks for reaching out!"},
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	action := decode[models.Node](t, body)

	status, body = doRequest(t, app, http.MethodPost, base+"/connect", web.ConnectRequest{
		Source: trigger.ID,
		Target: action.ID,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	edge := decode[models.Edge](t, body)
	assert.Equal(t, trigger.ID, edge.Source)

	status, body = doRequest(t, app, http.MethodPatch, base+"/workflow", web.UpdateMetadataRequest{
		Name:   "Lead SMS",
		ToolID: "leads",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.True(t, decode[graph.State](t, body).Dirty)

	status, body = doRequest(t, app, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	saved := decode[web.SaveResponse](t, body)
	require.NotEmpty(t, saved.WorkflowID)
	assert.False(t, saved.State.Dirty)
	require.NotNil(t, saved.State.Workflow.ID)
	assert.Equal(t, saved.WorkflowID, *saved.State.Workflow.ID)

	status, body = doRequest(t, app, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	other := createSession(t, app)

	status, body = doRequest(t, app, http.MethodPost, "/sessions/"+other+"/load/"+saved.WorkflowID, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	loaded := decode[graph.State](t, body)
	assert.Equal(t, "Lead SMS", loaded.Workflow.Name)
	assert.Len(t, loaded.Workflow.Nodes, 2)
	assert.Len(t, loaded.Workflow.Edges, 1)
	assert.False(t, loaded.Dirty)

	status, _ = doRequest(t, app, http.MethodDelete, "/workflows/"+saved.WorkflowID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/workflows/"+saved.WorkflowID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_SaveInvalidWorkflow(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)

	status, body := doRequest(t, app, http.MethodPost, "/sessions/"+sid+"/nodes", web.AddNodeRequest{
		Subtype: catalog.SubtypeSendEmail,
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = doRequest(t, app, http.MethodPost, "/sessions/"+sid+"/save", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var problem struct {
		Type       string            `json:"type"`
		Detail     string            `json:"detail"`
		Validation validation.Result `json:"validation"`
	}
	require.NoError(t, json.Unmarshal(body, &problem))

	assert.Equal(t, "workflow_invalid", problem.Type)
	assert.Contains(t, problem.Detail, validation.MessageMissingTrigger)
	assert.False(t, problem.Validation.IsValid)
	require.NotEmpty(t, problem.Validation.Errors)
	assert.Equal(t, validation.CodeMissingTrigger, problem.Validation.Errors[0].Code)

	status, _ = doRequest(t, app, http.MethodGet, "/workflows", nil)
	require.Equal(t, http.StatusOK, status)
}

func TestAPIHandlers_Validate(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)

	status, body := doRequest(t, app, http.MethodPost, "/sessions/"+sid+"/validate", nil)
	require.Equal(t, http.StatusOK, status)

	result := decode[validation.Result](t, body)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestAPIHandlers_Errors(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)
	base := "/sessions/" + sid

	status, body := doRequest(t, app, http.MethodPost, base+"/nodes", web.AddNodeRequest{Subtype: catalog.SubtypeWebhook})
	require.Equal(t, http.StatusCreated, status)

	trigger := decode[models.Node](t, body)

	status, body = doRequest(t, app, http.MethodPost, base+"/nodes", web.AddNodeRequest{Subtype: catalog.SubtypeSendEmail})
	require.Equal(t, http.StatusCreated, status)

	action := decode[models.Node](t, body)

	status, _ = doRequest(t, app, http.MethodPost, base+"/edges", web.ConnectRequest{Source: trigger.ID, Target: action.ID})
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name           string
		method         string
		path           string
		body           any
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "unknown session",
			method:         http.MethodGet,
			path:           "/sessions/missing/workflow",
			expectedStatus: http.StatusNotFound,
			expectedType:   "session_not_found",
		},
		{
			name:           "malformed body",
			method:         http.MethodPost,
			path:           base + "/nodes",
			body:           `{"subtype": `,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "node without subtype",
			method:         http.MethodPost,
			path:           base + "/nodes",
			body:           web.AddNodeRequest{Label: "Nameless"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "subtype outside the catalog",
			method:         http.MethodPost,
			path:           base + "/nodes",
			body:           web.AddNodeRequest{Subtype: "teleport"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "edge without target",
			method:         http.MethodPost,
			path:           base + "/edges",
			body:           map[string]any{"source": trigger.ID},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "duplicate edge",
			method:         http.MethodPost,
			path:           base + "/connect",
			body:           web.ConnectRequest{Source: trigger.ID, Target: action.ID},
			expectedStatus: http.StatusConflict,
			expectedType:   "conflict",
		},
		{
			name:           "edge to a missing node",
			method:         http.MethodPost,
			path:           base + "/edges",
			body:           web.ConnectRequest{Source: trigger.ID, Target: "ghost"},
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
		{
			name:           "update a missing node",
			method:         http.MethodPatch,
			path:           base + "/nodes/ghost",
			body:           web.UpdateNodeRequest{Config: map[string]any{"to": "a@b.c"}},
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
		{
			name:           "config rejected by the catalog schema",
			method:         http.MethodPatch,
			path:           base + "/nodes/" + trigger.ID,
			body:           web.UpdateNodeRequest{Config: map[string]any{"path": "no-leading-slash"}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "raw config that is not an object",
			method:         http.MethodPut,
			path:           base + "/nodes/" + trigger.ID + "/config",
			body:           `["path"]`,
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "select node and edge at once",
			method:         http.MethodPut,
			path:           base + "/selection",
			body:           web.SelectionRequest{NodeID: trigger.ID, EdgeID: "e1"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "select a missing edge",
			method:         http.MethodPut,
			path:           base + "/selection",
			body:           web.SelectionRequest{EdgeID: "ghost"},
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
		{
			name:           "unsupported change type",
			method:         http.MethodPost,
			path:           base + "/nodes/changes",
			body:           map[string]any{"changes": []map[string]any{{"type": "resize", "id": trigger.ID}}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "unknown template",
			method:         http.MethodPost,
			path:           base + "/templates/missing",
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
		{
			name:           "unknown stored workflow",
			method:         http.MethodPost,
			path:           base + "/load/missing",
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
		{
			name:           "log without message",
			method:         http.MethodPost,
			path:           base + "/execution/logs",
			body:           web.ExecutionLogRequest{Level: models.LogLevelError},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doRequest(t, app, tt.method, tt.path, tt.body)
			require.Equal(t, tt.expectedStatus, status, string(body))

			problem := decode[map[string]any](t, body)
			assert.Equal(t, tt.expectedType, problem["type"])
		})
	}

	// none of the rejected requests touched the graph
	status, body = doRequest(t, app, http.MethodGet, base+"/workflow", nil)
	require.Equal(t, http.StatusOK, status)

	state := decode[graph.State](t, body)
	assert.Len(t, state.Workflow.Nodes, 2)
	assert.Len(t, state.Workflow.Edges, 1)
	assert.Empty(t, state.Workflow.Nodes[0].Data.Config)
}

func TestAPIHandlers_NodeEditing(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)
	base := "/sessions/" + sid

	status, body := doRequest(t, app, http.MethodPost, base+"/nodes", web.AddNodeRequest{Subtype: catalog.SubtypeSchedule})
	require.Equal(t, http.StatusCreated, status)

	node := decode[models.Node](t, body)

	label := "First of the month"
	status, body = doRequest(t, app, http.MethodPatch, base+"/nodes/"+node.ID, web.UpdateNodeRequest{
		Label:  &label,
		Config: map[string]any{"cron": "0 9 1 * *"},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	updated := decode[models.Node](t, body)
	assert.Equal(t, label, updated.Data.Label)
	assert.Equal(t, "0 9 1 * *", updated.Data.Config["cron"])

	status, body = doRequest(t, app, http.MethodPut, base+"/nodes/"+node.ID+"/config", `{"timezone": "Europe/Lisbon"}`)
	require.Equal(t, http.StatusOK, status, string(body))

	updated = decode[models.Node](t, body)
	assert.Equal(t, map[string]any{"cron": "0 9 1 * *", "timezone": "Europe/Lisbon"}, updated.Data.Config)

	status, body = doRequest(t, app, http.MethodPut, base+"/selection", web.SelectionRequest{NodeID: node.ID})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, node.ID, decode[graph.Selection](t, body).NodeID)

	status, body = doRequest(t, app, http.MethodPost, base+"/nodes/changes", web.NodeChangesRequest{
		Changes: []models.NodeChange{
			{Type: models.ChangeTypePosition, ID: node.ID, Position: &models.Position{X: 40, Y: 80}},
		},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	state := decode[graph.State](t, body)
	require.Len(t, state.Workflow.Nodes, 1)
	assert.Equal(t, models.Position{X: 40, Y: 80}, state.Workflow.Nodes[0].Position)
	require.NotNil(t, state.SelectedNode)
	assert.Equal(t, node.ID, state.SelectedNode.ID)

	status, _ = doRequest(t, app, http.MethodDelete, base+"/nodes/"+node.ID, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = doRequest(t, app, http.MethodGet, base+"/workflow", nil)
	require.Equal(t, http.StatusOK, status)

	state = decode[graph.State](t, body)
	assert.Empty(t, state.Workflow.Nodes)
	assert.Nil(t, state.SelectedNode)
}

func TestAPIHandlers_EdgeEditing(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)
	base := "/sessions/" + sid

	status, body := doRequest(t, app, http.MethodPost, base+"/templates/maintenance-request", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	state := decode[graph.State](t, body)
	require.NotEmpty(t, state.Workflow.Edges)

	edgeID := state.Workflow.Edges[0].ID
	label := "urgent"

	status, body = doRequest(t, app, http.MethodPatch, base+"/edges/"+edgeID, models.EdgePatch{Label: &label})
	require.Equal(t, http.StatusOK, status, string(body))

	edge := decode[models.Edge](t, body)
	require.NotNil(t, edge.Data)
	assert.Equal(t, "urgent", edge.Data.Label)

	status, body = doRequest(t, app, http.MethodPost, base+"/edges/changes", web.EdgeChangesRequest{
		Changes: []models.EdgeChange{{Type: models.ChangeTypeRemove, ID: edgeID}},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	after := decode[graph.State](t, body)
	assert.Len(t, after.Workflow.Edges, len(state.Workflow.Edges)-1)
	assert.True(t, after.Dirty)

	status, _ = doRequest(t, app, http.MethodDelete, base+"/edges/"+edgeID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_LoadTemplateAndClear(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)
	base := "/sessions/" + sid

	status, body := doRequest(t, app, http.MethodPost, base+"/templates/rent-reminder", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	state := decode[graph.State](t, body)
	assert.Nil(t, state.Workflow.ID)
	assert.NotEmpty(t, state.Workflow.Nodes)
	assert.False(t, state.Dirty)

	status, body = doRequest(t, app, http.MethodDelete, base+"/workflow", nil)
	require.Equal(t, http.StatusOK, status)

	state = decode[graph.State](t, body)
	assert.Empty(t, state.Workflow.Nodes)
	assert.Empty(t, state.Workflow.Name)
}

func TestAPIHandlers_SetWorkflow(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)

	status, body := doRequest(t, app, http.MethodPut, "/sessions/"+sid+"/workflow", web.SetWorkflowRequest{
		Name: "Imported",
		Nodes: []*models.Node{
			{ID: "trigger-1", Data: models.NodeData{Category: models.CategoryTypeTrigger, Subtype: catalog.SubtypeWebhook}},
			{ID: "action-1", Data: models.NodeData{Category: models.CategoryTypeAction, Subtype: catalog.SubtypeSendEmail}},
		},
		Edges: []*models.Edge{
			{ID: "trigger-1-action-1", Source: "trigger-1", Target: "action-1"},
			{ID: "dangling", Source: "trigger-1", Target: "ghost"},
		},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	state := decode[graph.State](t, body)
	assert.Equal(t, "Imported", state.Workflow.Name)
	assert.Len(t, state.Workflow.Nodes, 2)
	require.Len(t, state.Workflow.Edges, 1)
	assert.Equal(t, "trigger-1-action-1", state.Workflow.Edges[0].ID)
	assert.Equal(t, models.DefaultNodeType, state.Workflow.Nodes[0].Type)
}

func TestAPIHandlers_SetWorkflowRejectsUnknownCategory(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)

	status, body := doRequest(t, app, http.MethodPut, "/sessions/"+sid+"/workflow",
		`{"name":"Imported","nodes":[{"id":"n1","data":{"category":"bogus","subtype":"x","config":{}}}],"edges":[]}`)
	require.Equal(t, http.StatusBadRequest, status, string(body))

	var problem struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(body, &problem))
	assert.Equal(t, "validation_error", problem.Type)

	status, body = doRequest(t, app, http.MethodGet, "/sessions/"+sid+"/workflow", nil)
	require.Equal(t, http.StatusOK, status)

	state := decode[graph.State](t, body)
	assert.Empty(t, state.Workflow.Nodes)
	assert.Empty(t, state.Workflow.Name)
}

func TestAPIHandlers_Execution(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)
	base := "/sessions/" + sid

	status, body := doRequest(t, app, http.MethodPost, base+"/execution/start", nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[graph.State](t, body).IsExecuting)

	status, body = doRequest(t, app, http.MethodPost, base+"/execution/logs", web.ExecutionLogRequest{
		NodeID:  "action-1",
		Level:   models.LogLevelSuccess,
		Message: "SMS delivered",
	})
	require.Equal(t, http.StatusCreated, status, string(body))

	entry := decode[models.ExecutionLog](t, body)
	assert.Equal(t, models.LogLevelSuccess, entry.Level)
	assert.False(t, entry.Timestamp.IsZero())

	status, body = doRequest(t, app, http.MethodPost, base+"/execution/stop", nil)
	require.Equal(t, http.StatusOK, status)

	state := decode[graph.State](t, body)
	assert.False(t, state.IsExecuting)
	require.Len(t, state.Logs, 1)
	assert.Equal(t, "SMS delivered", state.Logs[0].Message)

	status, _ = doRequest(t, app, http.MethodDelete, base+"/execution/logs", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, body = doRequest(t, app, http.MethodGet, base+"/workflow", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[graph.State](t, body).Logs)
}

func TestAPIHandlers_DeleteSession(t *testing.T) {
	app := setupTestApp(t)
	sid := createSession(t, app)

	status, _ := doRequest(t, app, http.MethodDelete, "/sessions/"+sid, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = doRequest(t, app, http.MethodGet, "/sessions/"+sid+"/workflow", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIHandlers_CatalogAndTemplates(t *testing.T) {
	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/catalog", nil)
	require.Equal(t, http.StatusOK, status)

	var catalogResponse struct {
		Nodes      []catalog.Definition                         `json:"nodes"`
		Categories map[models.CategoryType][]catalog.Definition `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(body, &catalogResponse))

	assert.Len(t, catalogResponse.Nodes, len(catalog.Default().List()))

	for _, category := range []models.CategoryType{
		models.CategoryTypeTrigger,
		models.CategoryTypeAction,
		models.CategoryTypeLogic,
		models.CategoryTypeIntegration,
	} {
		assert.NotEmpty(t, catalogResponse.Categories[category], category)
	}

	status, body = doRequest(t, app, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, status)

	summaries := decode[[]templates.Summary](t, body)
	ids := make([]string, 0, len(summaries))

	for _, summary := range summaries {
		ids = append(ids, summary.ID)
	}

	assert.Contains(t, ids, "default")
	assert.Contains(t, ids, "rent-reminder")
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	status, body := doRequest(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	health := decode[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "Persistence layer is healthy", health["checkers"].(map[string]any)["repository"])
}
