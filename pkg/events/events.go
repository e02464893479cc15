// Package events defines the notifications published while a workflow is edited.
package events

import (
	"time"

	"github.com/dukex/propflow/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every editor event.
const Topic = "propflow.editor.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowLoadedEvent  EventType = "workflow.loaded"
	WorkflowSavedEvent   EventType = "workflow.saved"
	WorkflowClearedEvent EventType = "workflow.cleared"

	// Execution session events.
	ExecutionStartedEvent  EventType = "execution.started"
	ExecutionStoppedEvent  EventType = "execution.stopped"
	ExecutionLogAddedEvent EventType = "execution.log_added"
)

// Workflow load sources.
const (
	SourceStorage  = "storage"
	SourceTemplate = "template"
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"session_id"`
	WorkflowID string    `json:"workflow_id,omitempty"`
}

func NewBaseEvent(eventType EventType, sessionID, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		SessionID:  sessionID,
		WorkflowID: workflowID,
	}
}

type WorkflowLoaded struct {
	BaseEvent

	Source     string `json:"source"`
	TemplateID string `json:"template_id,omitempty"`
	NodeCount  int    `json:"node_count"`
	EdgeCount  int    `json:"edge_count"`
}

func (e WorkflowLoaded) GetType() EventType {
	return WorkflowLoadedEvent
}

type WorkflowSaved struct {
	BaseEvent

	Revision  uint64 `json:"revision"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (e WorkflowSaved) GetType() EventType {
	return WorkflowSavedEvent
}

type WorkflowCleared struct {
	BaseEvent
}

func (e WorkflowCleared) GetType() EventType {
	return WorkflowClearedEvent
}

type ExecutionStarted struct {
	BaseEvent
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionStopped struct {
	BaseEvent

	LogCount int `json:"log_count"`
}

func (e ExecutionStopped) GetType() EventType {
	return ExecutionStoppedEvent
}

type ExecutionLogAdded struct {
	BaseEvent

	Log models.ExecutionLog `json:"log"`
}

func (e ExecutionLogAdded) GetType() EventType {
	return ExecutionLogAddedEvent
}
