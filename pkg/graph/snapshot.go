package graph

import (
	"github.com/dukex/propflow/pkg/models"
)

// Selection is the current single selection of the canvas.
type Selection struct {
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
}

// State is everything the canvas and the editing panel render from.
type State struct {
	Workflow     models.Workflow       `json:"workflow"`
	SelectedNode *models.Node          `json:"selectedNode"`
	SelectedEdge *models.Edge          `json:"selectedEdge"`
	IsExecuting  bool                  `json:"isExecuting"`
	Logs         []models.ExecutionLog `json:"logs"`
	Dirty        bool                  `json:"dirty"`
	Revision     uint64                `json:"revision"`
}

// Snapshot returns a deep copy of the workflow.
func (s *Store) Snapshot() models.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshot()
}

// State returns a consistent deep copy of the whole editor state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Workflow:    s.snapshot(),
		IsExecuting: s.session.IsExecuting(),
		Logs:        s.session.Logs(),
		Dirty:       s.dirty,
		Revision:    s.revision,
	}

	if idx := s.nodeIndex(s.selectedNodeID); s.selectedNodeID != "" && idx >= 0 {
		state.SelectedNode = s.nodes[idx].Clone()
	}

	if idx := s.edgeIndex(s.selectedEdgeID); s.selectedEdgeID != "" && idx >= 0 {
		state.SelectedEdge = s.edges[idx].Clone()
	}

	return state
}

// Version identifies the state a record was taken at.
type Version struct {
	Generation uint64
	Revision   uint64
}

// Record returns the persisted representation of the workflow together with the version
// it was taken at.
func (s *Store) Record() (models.WorkflowRecord, Version) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflow := s.snapshot()

	return workflow.Record(), Version{Generation: s.generation, Revision: s.revision}
}

// Node returns a copy of the node.
func (s *Store) Node(nodeID string) (*models.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.nodeIndex(nodeID)
	if idx < 0 {
		return nil, newError("Node", nodeID, ErrNodeNotFound)
	}

	return s.nodes[idx].Clone(), nil
}

// Edge returns a copy of the edge.
func (s *Store) Edge(edgeID string) (*models.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.edgeIndex(edgeID)
	if idx < 0 {
		return nil, newError("Edge", edgeID, ErrEdgeNotFound)
	}

	return s.edges[idx].Clone(), nil
}

// Selection returns the ids of the selected node or edge.
func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Selection{NodeID: s.selectedNodeID, EdgeID: s.selectedEdgeID}
}

// SelectedNode returns a copy of the selected node, or nil.
func (s *Store) SelectedNode() *models.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedNodeID == "" {
		return nil
	}

	return s.nodes[s.nodeIndex(s.selectedNodeID)].Clone()
}

// SelectedEdge returns a copy of the selected edge, or nil.
func (s *Store) SelectedEdge() *models.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selectedEdgeID == "" {
		return nil
	}

	return s.edges[s.edgeIndex(s.selectedEdgeID)].Clone()
}

// WorkflowID returns the persisted id of the workflow, or "" before the first save.
func (s *Store) WorkflowID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id == nil {
		return ""
	}

	return *s.id
}

func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dirty
}

// Revision increases on every mutation and on every workflow replacement.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.revision
}

func (s *Store) IsExecuting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.IsExecuting()
}

// Logs returns a copy of the execution log.
func (s *Store) Logs() []models.ExecutionLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.session.Logs()
}

func (s *Store) snapshot() models.Workflow {
	workflow := models.Workflow{
		Name:        s.name,
		Description: s.description,
		ToolID:      s.toolID,
		Nodes:       make([]*models.Node, 0, len(s.nodes)),
		Edges:       make([]*models.Edge, 0, len(s.edges)),
		Dirty:       s.dirty,
	}

	if s.id != nil {
		workflow.ID = models.StringPtr(*s.id)
	}

	for _, n := range s.nodes {
		workflow.Nodes = append(workflow.Nodes, n.Clone())
	}

	for _, e := range s.edges {
		workflow.Edges = append(workflow.Edges, e.Clone())
	}

	return workflow
}
