// Package templates turns pre-authored workflow skeletons into fresh, unsaved workflows.
package templates

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/dukex/propflow/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrTemplateNotFound is returned when no template has the requested id.
var ErrTemplateNotFound = errors.New("template not found")

//go:embed library/*.yaml
var library embed.FS

// Summary describes a template for listings.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ToolID      string `json:"toolId"`
	NodeCount   int    `json:"nodeCount"`
	EdgeCount   int    `json:"edgeCount"`
}

// Loader serves templates parsed once at construction. It is read-only afterwards and
// safe for concurrent use.
type Loader struct {
	templates map[string]*models.WorkflowInit
	order     []string
}

// NewLoader parses every *.yaml file at the root of fsys.
func NewLoader(fsys fs.FS) (*Loader, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	loader := &Loader{
		templates: make(map[string]*models.WorkflowInit, len(files)),
		order:     make([]string, 0, len(files)),
	}

	for _, file := range files {
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", file, err)
		}

		var doc templateFile
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", file, err)
		}

		if doc.ID == "" {
			doc.ID = strings.TrimSuffix(path.Base(file), path.Ext(file))
		}

		if _, exists := loader.templates[doc.ID]; exists {
			return nil, fmt.Errorf("duplicate template id %q in %s", doc.ID, file)
		}

		snapshot := doc.workflow()
		loader.templates[doc.ID] = &snapshot
		loader.order = append(loader.order, doc.ID)
	}

	slices.Sort(loader.order)

	return loader, nil
}

// NewDefaultLoader returns a loader over the templates shipped with the binary.
func NewDefaultLoader() (*Loader, error) {
	sub, err := fs.Sub(library, "library")
	if err != nil {
		return nil, fmt.Errorf("failed to open template library: %w", err)
	}

	return NewLoader(sub)
}

// Parse decodes a single template document into a workflow snapshot.
func Parse(raw []byte) (models.WorkflowInit, error) {
	var doc templateFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return models.WorkflowInit{}, fmt.Errorf("failed to parse template: %w", err)
	}

	return doc.workflow(), nil
}

// Load returns a deep copy of the template's graph with the id cleared, ready for
// graph.Store.SetWorkflow. Edits to the result never reach the template.
func (l *Loader) Load(templateID string) (models.WorkflowInit, error) {
	tmpl, ok := l.templates[templateID]
	if !ok {
		return models.WorkflowInit{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}

	snapshot := models.WorkflowInit{
		ID:          nil,
		Name:        tmpl.Name,
		Description: tmpl.Description,
		ToolID:      tmpl.ToolID,
		Nodes:       make([]*models.Node, 0, len(tmpl.Nodes)),
		Edges:       make([]*models.Edge, 0, len(tmpl.Edges)),
	}

	for _, node := range tmpl.Nodes {
		snapshot.Nodes = append(snapshot.Nodes, node.Clone())
	}

	for _, edge := range tmpl.Edges {
		snapshot.Edges = append(snapshot.Edges, edge.Clone())
	}

	return snapshot, nil
}

// List returns a summary of every template ordered by id.
func (l *Loader) List() []Summary {
	summaries := make([]Summary, 0, len(l.order))

	for _, id := range l.order {
		tmpl := l.templates[id]
		summaries = append(summaries, Summary{
			ID:          id,
			Name:        tmpl.Name,
			Description: tmpl.Description,
			ToolID:      tmpl.ToolID,
			NodeCount:   len(tmpl.Nodes),
			EdgeCount:   len(tmpl.Edges),
		})
	}

	return summaries
}

// Has reports whether a template exists.
func (l *Loader) Has(templateID string) bool {
	_, ok := l.templates[templateID]

	return ok
}
