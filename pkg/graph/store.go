// Package graph provides the in-memory graph store behind the workflow builder canvas.
package graph

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dukex/propflow/pkg/execution"
	"github.com/dukex/propflow/pkg/models"
	"github.com/google/uuid"
)

// Store is the sole mutator of a workflow. Every operation holds the store lock and runs
// to completion, so the invariants below hold between any two calls:
//
//   - every edge references nodes present in the workflow
//   - deleting a node removes its incident edges
//   - node ids and edge ids are unique
//   - the selection holds at most one present node or edge
type Store struct {
	mu sync.Mutex

	logger *slog.Logger
	newID  func() string

	id          *string
	name        string
	description string
	toolID      string
	nodes       []*models.Node
	edges       []*models.Edge

	selectedNodeID string
	selectedEdgeID string

	dirty      bool
	revision   uint64
	generation uint64 // bumped whenever the whole workflow is replaced

	session *execution.Session
}

// Option configures a Store.
type Option func(*storeOptions)

type storeOptions struct {
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithIDGenerator overrides the generator used for node ids and edge id suffixes.
func WithIDGenerator(newID func() string) Option {
	return func(o *storeOptions) {
		o.newID = newID
	}
}

// WithClock overrides the clock used to stamp execution logs.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		o.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	options := &storeOptions{
		logger: slog.Default(),
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(options)
	}

	return &Store{
		logger:  options.logger.With("module", "graph"),
		newID:   options.newID,
		nodes:   make([]*models.Node, 0),
		edges:   make([]*models.Edge, 0),
		session: execution.NewSession(options.now),
	}
}

// SetWorkflow replaces the whole workflow and clears the selection. Nodes with a duplicate
// id or an unknown category and edges that would break referential integrity are dropped.
// The workflow is clean afterwards unless something was dropped, and the number of
// dropped entries is returned.
func (s *Store) SetWorkflow(snapshot models.WorkflowInit) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = nil
	if snapshot.ID != nil {
		id := *snapshot.ID
		s.id = &id
	}

	s.name = snapshot.Name
	s.description = snapshot.Description
	s.toolID = snapshot.ToolID
	s.nodes = make([]*models.Node, 0, len(snapshot.Nodes))
	s.edges = make([]*models.Edge, 0, len(snapshot.Edges))

	dropped := 0

	for _, node := range snapshot.Nodes {
		if node == nil {
			continue
		}

		n := node.Clone()
		if n.ID == "" {
			n.ID = s.uniqueNodeID()
		}

		if s.nodeIndex(n.ID) >= 0 {
			s.logger.Warn("Dropping node with duplicate id", "node_id", n.ID)
			dropped++

			continue
		}

		if !n.Data.Category.Valid() {
			s.logger.Warn("Dropping node with unknown category", "node_id", n.ID, "category", n.Data.Category)
			dropped++

			continue
		}

		if n.Type == "" {
			n.Type = models.DefaultNodeType
		}

		if n.Data.Config == nil {
			n.Data.Config = make(map[string]any)
		}

		s.nodes = append(s.nodes, n)
	}

	for _, edge := range snapshot.Edges {
		if edge == nil {
			continue
		}

		e := edge.Clone()
		if s.nodeIndex(e.Source) < 0 || s.nodeIndex(e.Target) < 0 {
			s.logger.Warn("Dropping edge with missing endpoint", "edge_id", e.ID, "source", e.Source, "target", e.Target)
			dropped++

			continue
		}

		if e.ID == "" {
			e.ID = s.uniqueEdgeID(e.Source, e.Target)
		}

		if s.edgeIndex(e.ID) >= 0 {
			s.logger.Warn("Dropping edge with duplicate id", "edge_id", e.ID)
			dropped++

			continue
		}

		s.edges = append(s.edges, e)
	}

	s.selectedNodeID = ""
	s.selectedEdgeID = ""
	s.dirty = dropped > 0
	s.revision++
	s.generation++

	return dropped
}

// AddNode assigns a fresh id to the creation payload and appends the node. The config is
// stored as given; schema enforcement belongs to the catalog.
func (s *Store) AddNode(input models.NodeInput) (*models.Node, error) {
	if !input.Category.Valid() {
		return nil, newError("AddNode", "", fmt.Errorf("%w: %q", ErrInvalidCategory, input.Category))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nodeType := input.Type
	if nodeType == "" {
		nodeType = models.DefaultNodeType
	}

	config := models.CloneConfig(input.Config)
	if config == nil {
		config = make(map[string]any)
	}

	node := &models.Node{
		ID:       s.uniqueNodeID(),
		Type:     nodeType,
		Position: input.Position,
		Data: models.NodeData{
			Category:    input.Category,
			Subtype:     input.Subtype,
			Label:       input.Label,
			Description: input.Description,
			Icon:        input.Icon,
			Color:       input.Color,
			Config:      config,
		},
	}

	s.nodes = append(s.nodes, node)
	s.touch()

	return node.Clone(), nil
}

// UpdateNode shallow-merges patch into the node's data.
func (s *Store) UpdateNode(nodeID string, patch models.NodePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.nodeIndex(nodeID)
	if idx < 0 {
		return newError("UpdateNode", nodeID, ErrNodeNotFound)
	}

	applyNodePatch(s.nodes[idx], patch)
	s.touch()

	return nil
}

// UpdateNodeConfigJSON merges a raw JSON object typed into the configuration editor.
// Input that is not a JSON object leaves the config unchanged.
func (s *Store) UpdateNodeConfigJSON(nodeID string, raw []byte) error {
	var config map[string]any

	err := json.Unmarshal(raw, &config)
	if err != nil || config == nil {
		return newError("UpdateNodeConfigJSON", nodeID, ErrMalformedConfig)
	}

	return s.UpdateNode(nodeID, models.NodePatch{Config: config})
}

// DeleteNode removes the node together with every incident edge.
func (s *Store) DeleteNode(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nodeIndex(nodeID) < 0 {
		return newError("DeleteNode", nodeID, ErrNodeNotFound)
	}

	s.removeNodes(map[string]bool{nodeID: true})
	s.touch()

	return nil
}

// AddEdge connects two present nodes. A connection missing an endpoint, referencing an
// absent node or duplicating an existing edge is rejected without mutation.
func (s *Store) AddEdge(conn models.Connection) (*models.Edge, error) {
	if conn.Source == "" || conn.Target == "" {
		return nil, newError("AddEdge", "", ErrInvalidConnection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nodeIndex(conn.Source) < 0 {
		return nil, newError("AddEdge", conn.Source, ErrNodeNotFound)
	}

	if s.nodeIndex(conn.Target) < 0 {
		return nil, newError("AddEdge", conn.Target, ErrNodeNotFound)
	}

	for _, e := range s.edges {
		if e.Source == conn.Source && e.Target == conn.Target &&
			e.SourceHandle == conn.SourceHandle && e.TargetHandle == conn.TargetHandle {
			return nil, newError("AddEdge", e.ID, ErrDuplicateEdge)
		}
	}

	edge := &models.Edge{
		ID:           s.uniqueEdgeID(conn.Source, conn.Target),
		Source:       conn.Source,
		Target:       conn.Target,
		SourceHandle: conn.SourceHandle,
		TargetHandle: conn.TargetHandle,
	}

	if conn.Data != nil {
		data := *conn.Data
		edge.Data = &data
	}

	s.edges = append(s.edges, edge)
	s.touch()

	return edge.Clone(), nil
}

// OnConnect is called by the canvas when a drag-to-connect gesture completes.
func (s *Store) OnConnect(conn models.Connection) (*models.Edge, error) {
	return s.AddEdge(conn)
}

// UpdateEdge applies patch to the edge's handles and metadata. Endpoints never change.
func (s *Store) UpdateEdge(edgeID string, patch models.EdgePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.edgeIndex(edgeID)
	if idx < 0 {
		return newError("UpdateEdge", edgeID, ErrEdgeNotFound)
	}

	edge := s.edges[idx]

	if patch.SourceHandle != nil {
		edge.SourceHandle = *patch.SourceHandle
	}

	if patch.TargetHandle != nil {
		edge.TargetHandle = *patch.TargetHandle
	}

	if patch.Label != nil || patch.Condition != nil {
		if edge.Data == nil {
			edge.Data = &models.EdgeData{}
		}

		if patch.Label != nil {
			edge.Data.Label = *patch.Label
		}

		if patch.Condition != nil {
			edge.Data.Condition = *patch.Condition
		}
	}

	s.touch()

	return nil
}

// DeleteEdge removes the edge and clears the edge selection if it pointed at it.
func (s *Store) DeleteEdge(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.edgeIndex(edgeID) < 0 {
		return newError("DeleteEdge", edgeID, ErrEdgeNotFound)
	}

	s.removeEdges(map[string]bool{edgeID: true})
	s.touch()

	return nil
}

// SelectNode selects the node and clears any edge selection. An empty id clears both.
func (s *Store) SelectNode(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nodeID != "" && s.nodeIndex(nodeID) < 0 {
		return newError("SelectNode", nodeID, ErrNodeNotFound)
	}

	s.selectedNodeID = nodeID
	s.selectedEdgeID = ""

	return nil
}

// SelectEdge selects the edge and clears any node selection. An empty id clears both.
func (s *Store) SelectEdge(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if edgeID != "" && s.edgeIndex(edgeID) < 0 {
		return newError("SelectEdge", edgeID, ErrEdgeNotFound)
	}

	s.selectedEdgeID = edgeID
	s.selectedNodeID = ""

	return nil
}

// StartExecution clears the execution log and marks the workflow as executing.
func (s *Store) StartExecution() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Start()
}

// StopExecution marks the workflow as idle and keeps the log.
func (s *Store) StopExecution() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Stop()
}

// AddExecutionLog appends entry stamped with the current time.
func (s *Store) AddExecutionLog(entry models.ExecutionLog) models.ExecutionLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.Append(entry)
}

// ClearExecutionLogs empties the execution log.
func (s *Store) ClearExecutionLogs() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Clear()
}

// ClearWorkflow resets the store to its initial state.
func (s *Store) ClearWorkflow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = nil
	s.name = ""
	s.description = ""
	s.toolID = ""
	s.nodes = make([]*models.Node, 0)
	s.edges = make([]*models.Edge, 0)
	s.selectedNodeID = ""
	s.selectedEdgeID = ""
	s.dirty = false
	s.revision++
	s.generation++
	s.session.Reset()
}

// SetDirty overrides the dirty flag, e.g. after a successful save.
func (s *Store) SetDirty(dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = dirty
}

// SetMetadata updates the workflow name, description and tool category.
func (s *Store) SetMetadata(name, description, toolID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.name = name
	s.description = description
	s.toolID = toolID
	s.touch()
}

// MarkSaved records the persisted id of the workflow read at version. The id is dropped
// when the workflow was replaced in the meantime, and the dirty flag is only cleared when
// nothing was mutated since. It reports whether the flag was cleared.
func (s *Store) MarkSaved(id string, version Version) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != version.Generation {
		return false
	}

	s.id = &id

	if s.revision != version.Revision {
		return false
	}

	s.dirty = false

	return true
}

// touch records a mutation. Callers hold the lock.
func (s *Store) touch() {
	s.dirty = true
	s.revision++
}

// removeNodes drops the given nodes and every edge incident to any of them, then clears
// a selection that no longer resolves. Callers hold the lock.
func (s *Store) removeNodes(ids map[string]bool) {
	if len(ids) == 0 {
		return
	}

	incident := make(map[string]bool)

	for _, e := range s.edges {
		if ids[e.Source] || ids[e.Target] {
			incident[e.ID] = true
		}
	}

	s.nodes = slices.DeleteFunc(s.nodes, func(n *models.Node) bool {
		return ids[n.ID]
	})

	s.removeEdges(incident)

	if ids[s.selectedNodeID] {
		s.selectedNodeID = ""
	}
}

// removeEdges drops the given edges and clears a stale edge selection. Callers hold the lock.
func (s *Store) removeEdges(ids map[string]bool) {
	if len(ids) == 0 {
		return
	}

	s.edges = slices.DeleteFunc(s.edges, func(e *models.Edge) bool {
		return ids[e.ID]
	})

	if ids[s.selectedEdgeID] {
		s.selectedEdgeID = ""
	}
}

func (s *Store) nodeIndex(id string) int {
	return slices.IndexFunc(s.nodes, func(n *models.Node) bool { return n.ID == id })
}

func (s *Store) edgeIndex(id string) int {
	return slices.IndexFunc(s.edges, func(e *models.Edge) bool { return e.ID == id })
}

func (s *Store) uniqueNodeID() string {
	for {
		id := s.newID()
		if s.nodeIndex(id) < 0 {
			return id
		}
	}
}

// uniqueEdgeID follows the source-target-random scheme.
func (s *Store) uniqueEdgeID(source, target string) string {
	for {
		suffix := s.newID()
		if len(suffix) > 8 {
			suffix = suffix[:8]
		}

		id := source + "-" + target + "-" + suffix
		if s.edgeIndex(id) < 0 {
			return id
		}
	}
}

func applyNodePatch(node *models.Node, patch models.NodePatch) {
	if patch.Label != nil {
		node.Data.Label = *patch.Label
	}

	if patch.Description != nil {
		node.Data.Description = *patch.Description
	}

	if patch.Icon != nil {
		node.Data.Icon = *patch.Icon
	}

	if patch.Color != nil {
		node.Data.Color = *patch.Color
	}

	if len(patch.Config) > 0 {
		if node.Data.Config == nil {
			node.Data.Config = make(map[string]any, len(patch.Config))
		}

		maps.Copy(node.Data.Config, models.CloneConfig(patch.Config))
	}
}
