// Package validation checks the shape of a workflow graph before it is persisted.
package validation

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/dukex/propflow/pkg/models"
)

// Issue codes.
const (
	CodeMissingTrigger   = "missing_trigger"
	CodeCycleDetected    = "cycle_detected"
	CodeDisconnectedNode = "disconnected_node"
	CodeDuplicateNodeID  = "duplicate_node_id"
	CodeDuplicateEdgeID  = "duplicate_edge_id"
	CodeDanglingEdge     = "dangling_edge"
	CodeInvalidNode      = "invalid_node"
	CodeInvalidEdge      = "invalid_edge"
)

// MessageMissingTrigger is reported when a non-empty workflow has no trigger node.
const MessageMissingTrigger = "Workflow must have at least one trigger node."

// Issue is a single diagnostic about a workflow.
type Issue struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	NodeIDs []string `json:"nodeIds,omitempty"`
	EdgeID  string   `json:"edgeId,omitempty"`
}

// Result is the outcome of a validation. Warnings never affect IsValid.
type Result struct {
	IsValid  bool    `json:"isValid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Messages returns the error messages in report order.
func (r Result) Messages() []string {
	messages := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		messages = append(messages, issue.Message)
	}

	return messages
}

// Validator validates workflow snapshots. It holds no state besides its logger.
type Validator struct {
	logger *slog.Logger
}

// New creates a validator. Soft diagnostics are logged through logger.
func New(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Validator{logger: logger.With("module", "validation")}
}

// Validate checks a workflow snapshot:
//
//   - structural integrity (ids present and unique, edges reference present nodes)
//   - a non-empty workflow has at least one trigger
//   - the directed edges form no cycle
//
// Non-trigger nodes not touched by any edge are reported as warnings only, since graphs
// under construction legitimately contain several fragments.
func (v *Validator) Validate(workflow models.Workflow) Result {
	result := Result{
		Errors:   make([]Issue, 0),
		Warnings: make([]Issue, 0),
	}

	nodes := make(map[string]*models.Node, len(workflow.Nodes))

	for _, node := range workflow.Nodes {
		if node == nil {
			continue
		}

		switch {
		case node.ID == "":
			result.Errors = append(result.Errors, Issue{
				Code:    CodeInvalidNode,
				Message: fmt.Sprintf("Node %q has no id.", node.Data.Label),
			})

			continue
		case !node.Data.Category.Valid():
			result.Errors = append(result.Errors, Issue{
				Code:    CodeInvalidNode,
				Message: fmt.Sprintf("Node %q has unknown category %q.", node.ID, node.Data.Category),
				NodeIDs: []string{node.ID},
			})
		}

		if _, exists := nodes[node.ID]; exists {
			result.Errors = append(result.Errors, Issue{
				Code:    CodeDuplicateNodeID,
				Message: fmt.Sprintf("Node id %q is used more than once.", node.ID),
				NodeIDs: []string{node.ID},
			})

			continue
		}

		nodes[node.ID] = node
	}

	edges := v.checkEdges(workflow.Edges, nodes, &result)

	if len(workflow.Nodes) > 0 && !hasTrigger(workflow.Nodes) {
		result.Errors = append(result.Errors, Issue{
			Code:    CodeMissingTrigger,
			Message: MessageMissingTrigger,
		})
	}

	if len(workflow.Nodes) > 1 {
		for _, id := range disconnectedNodes(workflow.Nodes, edges) {
			issue := Issue{
				Code:    CodeDisconnectedNode,
				Message: fmt.Sprintf("Node %q is not connected to the workflow.", id),
				NodeIDs: []string{id},
			}

			v.logger.Warn("Disconnected node", "node_id", id)
			result.Warnings = append(result.Warnings, issue)
		}
	}

	if cycle := findCycle(workflow.Nodes, edges); len(cycle) > 0 {
		result.Errors = append(result.Errors, Issue{
			Code:    CodeCycleDetected,
			Message: "Workflow contains a cycle: " + strings.Join(cycle, " -> ") + ".",
			NodeIDs: cycle,
		})
	}

	result.IsValid = len(result.Errors) == 0

	return result
}

// checkEdges reports malformed, duplicate and dangling edges and returns the edges that
// are safe to traverse.
func (v *Validator) checkEdges(edges []*models.Edge, nodes map[string]*models.Node, result *Result) []*models.Edge {
	valid := make([]*models.Edge, 0, len(edges))
	seen := make(map[string]bool, len(edges))

	for _, edge := range edges {
		if edge == nil {
			continue
		}

		if edge.ID == "" {
			result.Errors = append(result.Errors, Issue{
				Code:    CodeInvalidEdge,
				Message: fmt.Sprintf("Edge from %q to %q has no id.", edge.Source, edge.Target),
			})

			continue
		}

		if seen[edge.ID] {
			result.Errors = append(result.Errors, Issue{
				Code:    CodeDuplicateEdgeID,
				Message: fmt.Sprintf("Edge id %q is used more than once.", edge.ID),
				EdgeID:  edge.ID,
			})

			continue
		}

		seen[edge.ID] = true

		_, sourceOK := nodes[edge.Source]
		_, targetOK := nodes[edge.Target]

		if !sourceOK || !targetOK {
			result.Errors = append(result.Errors, Issue{
				Code:    CodeDanglingEdge,
				Message: fmt.Sprintf("Edge %q references a node that does not exist.", edge.ID),
				EdgeID:  edge.ID,
			})

			continue
		}

		valid = append(valid, edge)
	}

	return valid
}

func hasTrigger(nodes []*models.Node) bool {
	return slices.ContainsFunc(nodes, func(n *models.Node) bool {
		return n != nil && n.IsTrigger()
	})
}

// disconnectedNodes returns non-trigger nodes not touched by any edge. Triggers count as
// connected since they have no inbound edge by definition.
func disconnectedNodes(nodes []*models.Node, edges []*models.Edge) []string {
	connected := make(map[string]bool)

	for _, edge := range edges {
		connected[edge.Source] = true
		connected[edge.Target] = true
	}

	disconnected := make([]string, 0)

	for _, node := range nodes {
		if node == nil || node.ID == "" || node.IsTrigger() || connected[node.ID] {
			continue
		}

		if !slices.Contains(disconnected, node.ID) {
			disconnected = append(disconnected, node.ID)
		}
	}

	return disconnected
}

// findCycle runs a depth-first search with a recursion stack over the directed edges and
// returns the first cycle found as a closed path (first id repeated at the end), or nil.
// Nodes are visited in workflow order so the reported cycle is deterministic.
func findCycle(nodes []*models.Node, edges []*models.Edge) []string {
	adjacency := make(map[string][]string)
	for _, edge := range edges {
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	stack := make([]string, 0)

	var visit func(id string) []string
	visit = func(id string) []string {
		visited[id] = true
		onStack[id] = true
		stack = append(stack, id)

		for _, next := range adjacency[id] {
			if onStack[next] {
				start := slices.Index(stack, next)
				cycle := slices.Clone(stack[start:])

				return append(cycle, next)
			}

			if !visited[next] {
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		onStack[id] = false

		return nil
	}

	for _, node := range nodes {
		if node == nil || visited[node.ID] {
			continue
		}

		if cycle := visit(node.ID); cycle != nil {
			return cycle
		}
	}

	return nil
}
