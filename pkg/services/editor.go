package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukex/propflow/pkg/catalog"
	"github.com/dukex/propflow/pkg/eventbus"
	"github.com/dukex/propflow/pkg/events"
	"github.com/dukex/propflow/pkg/graph"
	"github.com/dukex/propflow/pkg/models"
	"github.com/dukex/propflow/pkg/otelhelper"
	"github.com/dukex/propflow/pkg/persistence"
	"github.com/dukex/propflow/pkg/templates"
	"github.com/dukex/propflow/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dependencies are the collaborators shared by every editor session. Repository and
// Templates are required; the others fall back to no-op or built-in implementations.
type Dependencies struct {
	Repository persistence.WorkflowRepository
	Templates  *templates.Loader
	Catalog    *catalog.Catalog
	Validator  *validation.Validator
	Publisher  eventbus.EventPublisher
	Tracer     trace.Tracer
	Logger     *slog.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}

	if d.Validator == nil {
		d.Validator = validation.New(d.Logger)
	}

	if d.Publisher == nil {
		d.Publisher = eventbus.Nop{}
	}

	if d.Tracer == nil {
		d.Tracer = otelhelper.NoopTracer()
	}

	return d
}

// Editor is one editing session: a graph store plus the operations that reach outside of
// it (storage, templates, catalog checks and event publishing).
type Editor struct {
	id        string
	createdAt time.Time
	store     *graph.Store
	deps      Dependencies
	logger    *slog.Logger

	// lastUsed is the unix nano time of the last session lookup.
	lastUsed atomic.Int64

	// saving admits a single save at a time.
	saving sync.Mutex
	// configMu serializes schema-checked config updates.
	configMu sync.Mutex
}

// NewEditor creates an editor session holding an empty workflow.
func NewEditor(id string, deps Dependencies) *Editor {
	deps = deps.withDefaults()
	logger := deps.Logger.With("module", "editor", "session_id", id)

	editor := &Editor{
		id:        id,
		createdAt: time.Now().UTC(),
		store:     graph.NewStore(graph.WithLogger(logger)),
		deps:      deps,
		logger:    logger,
	}
	editor.touch(editor.createdAt)

	return editor
}

func (e *Editor) ID() string {
	return e.id
}

func (e *Editor) CreatedAt() time.Time {
	return e.createdAt
}

// LastUsed returns when the session was last looked up.
func (e *Editor) LastUsed() time.Time {
	return time.Unix(0, e.lastUsed.Load()).UTC()
}

func (e *Editor) touch(now time.Time) {
	e.lastUsed.Store(now.UnixNano())
}

// Store exposes the graph store for plain canvas edits.
func (e *Editor) Store() *graph.Store {
	return e.store
}

// State returns the current editor state.
func (e *Editor) State() graph.State {
	return e.store.State()
}

// Validate checks the current workflow without saving it.
func (e *Editor) Validate() validation.Result {
	return e.deps.Validator.Validate(e.store.Snapshot())
}

// AddCatalogNode drops a catalog subtype on the canvas at position.
func (e *Editor) AddCatalogNode(subtype string, position models.Position) (*models.Node, error) {
	input, err := e.deps.Catalog.CreationPayload(subtype)
	if err != nil {
		return nil, err
	}

	input.Position = position

	return e.store.AddNode(input)
}

// UpdateNode applies patch after checking the merged config against the node's catalog
// schema. Subtypes unknown to the catalog are not checked.
func (e *Editor) UpdateNode(nodeID string, patch models.NodePatch) error {
	if len(patch.Config) == 0 {
		return e.store.UpdateNode(nodeID, patch)
	}

	e.configMu.Lock()
	defer e.configMu.Unlock()

	err := e.checkConfig(nodeID, patch.Config)
	if err != nil {
		return err
	}

	return e.store.UpdateNode(nodeID, patch)
}

// UpdateNodeConfigJSON merges raw JSON from the configuration editor into the node config.
func (e *Editor) UpdateNodeConfigJSON(nodeID string, raw []byte) error {
	var config map[string]any

	if err := json.Unmarshal(raw, &config); err != nil || config == nil {
		// the store reports the malformed input without mutating anything
		return e.store.UpdateNodeConfigJSON(nodeID, raw)
	}

	e.configMu.Lock()
	defer e.configMu.Unlock()

	err := e.checkConfig(nodeID, config)
	if err != nil {
		return err
	}

	return e.store.UpdateNodeConfigJSON(nodeID, raw)
}

func (e *Editor) checkConfig(nodeID string, patch map[string]any) error {
	node, err := e.store.Node(nodeID)
	if err != nil {
		return err
	}

	merged := models.CloneConfig(node.Data.Config)
	if merged == nil {
		merged = make(map[string]any, len(patch))
	}

	maps.Copy(merged, patch)

	err = e.deps.Catalog.ValidateConfig(node.Data.Subtype, merged)
	if errors.Is(err, catalog.ErrUnknownSubtype) {
		return nil
	}

	return err
}

// Save validates the workflow and hands its record to storage. Only one save runs at a
// time per session; edits made while the save is in flight keep the workflow dirty.
func (e *Editor) Save(ctx context.Context) (string, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.deps.Tracer, "editor.save",
		attribute.String(otelhelper.SessionIDKey, e.id),
	)
	defer span.End()

	record, version := e.store.Record()

	result := e.deps.Validator.Validate(models.Workflow{
		Nodes: record.WorkflowData.Nodes,
		Edges: record.WorkflowData.Edges,
	})
	if !result.IsValid {
		err := &ValidationError{Result: result}
		otelhelper.SetError(span, err)
		e.logger.Info("Workflow failed validation", "errors", len(result.Errors))

		return "", err
	}

	if !e.saving.TryLock() {
		otelhelper.SetError(span, ErrSaveInProgress)

		return "", ErrSaveInProgress
	}
	defer e.saving.Unlock()

	span.SetAttributes(
		attribute.Int64(otelhelper.RevisionKey, int64(version.Revision)),
		attribute.Int(otelhelper.NodeCountKey, len(record.WorkflowData.Nodes)),
		attribute.Int(otelhelper.EdgeCountKey, len(record.WorkflowData.Edges)),
	)

	id, err := e.deps.Repository.Save(ctx, &record)
	if err != nil {
		otelhelper.SetError(span, err)
		e.logger.Error("Failed to save workflow", "error", err)

		return "", fmt.Errorf("failed to save workflow: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, id))

	clean := e.store.MarkSaved(id, version)
	e.logger.Info("Workflow saved", "workflow_id", id, "clean", clean)

	e.publish(ctx, events.WorkflowSaved{
		BaseEvent: events.NewBaseEvent(events.WorkflowSavedEvent, e.id, id),
		Revision:  version.Revision,
		NodeCount: len(record.WorkflowData.Nodes),
		EdgeCount: len(record.WorkflowData.Edges),
	})

	return id, nil
}

// Load replaces the workflow with the stored one. A record that had to be repaired is left
// dirty so the repair can be saved.
func (e *Editor) Load(ctx context.Context, workflowID string) error {
	ctx, span := otelhelper.StartSpan(ctx, e.deps.Tracer, "editor.load",
		attribute.String(otelhelper.SessionIDKey, e.id),
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
	)
	defer span.End()

	stored, err := e.deps.Repository.GetByID(ctx, workflowID)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	workflow := stored.Init()

	dropped := e.store.SetWorkflow(workflow)
	if dropped > 0 {
		e.logger.Warn("Stored workflow was repaired on load, save to persist the repair",
			"workflow_id", workflowID, "dropped", dropped)
	}

	e.logger.Info("Workflow loaded", "workflow_id", workflowID)

	e.publish(ctx, events.WorkflowLoaded{
		BaseEvent: events.NewBaseEvent(events.WorkflowLoadedEvent, e.id, workflowID),
		Source:    events.SourceStorage,
		NodeCount: len(workflow.Nodes),
		EdgeCount: len(workflow.Edges),
	})

	return nil
}

// LoadTemplate replaces the workflow with a fresh, unsaved copy of a template.
func (e *Editor) LoadTemplate(ctx context.Context, templateID string) error {
	ctx, span := otelhelper.StartSpan(ctx, e.deps.Tracer, "editor.load_template",
		attribute.String(otelhelper.SessionIDKey, e.id),
		attribute.String(otelhelper.TemplateIDKey, templateID),
	)
	defer span.End()

	workflow, err := e.deps.Templates.Load(templateID)
	if err != nil {
		otelhelper.SetError(span, err)

		return err
	}

	e.store.SetWorkflow(workflow)
	e.logger.Info("Template loaded", "template_id", templateID)

	e.publish(ctx, events.WorkflowLoaded{
		BaseEvent:  events.NewBaseEvent(events.WorkflowLoadedEvent, e.id, ""),
		Source:     events.SourceTemplate,
		TemplateID: templateID,
		NodeCount:  len(workflow.Nodes),
		EdgeCount:  len(workflow.Edges),
	})

	return nil
}

// Clear resets the session to an empty workflow.
func (e *Editor) Clear(ctx context.Context) {
	workflowID := e.store.WorkflowID()
	e.store.ClearWorkflow()

	e.publish(ctx, events.WorkflowCleared{
		BaseEvent: events.NewBaseEvent(events.WorkflowClearedEvent, e.id, workflowID),
	})
}

// StartExecution starts a new execution session with an empty log.
func (e *Editor) StartExecution(ctx context.Context) {
	e.store.StartExecution()

	e.publish(ctx, events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, e.id, e.store.WorkflowID()),
	})
}

// StopExecution ends the execution session and keeps its log.
func (e *Editor) StopExecution(ctx context.Context) {
	e.store.StopExecution()

	e.publish(ctx, events.ExecutionStopped{
		BaseEvent: events.NewBaseEvent(events.ExecutionStoppedEvent, e.id, e.store.WorkflowID()),
		LogCount:  len(e.store.Logs()),
	})
}

// AddExecutionLog appends a timestamped entry to the execution log.
func (e *Editor) AddExecutionLog(ctx context.Context, entry models.ExecutionLog) models.ExecutionLog {
	stamped := e.store.AddExecutionLog(entry)

	e.publish(ctx, events.ExecutionLogAdded{
		BaseEvent: events.NewBaseEvent(events.ExecutionLogAddedEvent, e.id, e.store.WorkflowID()),
		Log:       stamped,
	})

	return stamped
}

// publish delivers event on a best-effort basis. A failed publish is logged and never
// undoes the operation.
func (e *Editor) publish(ctx context.Context, event eventbus.Event) {
	err := e.deps.Publisher.Publish(ctx, e.id, event)
	if err != nil {
		e.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
