package templates

import "github.com/dukex/propflow/pkg/models"

// templateFile is the authored YAML layout. Node data fields are flattened to keep the
// library files short.
type templateFile struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	ToolID      string         `yaml:"toolId"`
	Nodes       []templateNode `yaml:"nodes"`
	Edges       []templateEdge `yaml:"edges"`
}

type templateNode struct {
	ID          string              `yaml:"id"`
	Type        string              `yaml:"type,omitempty"`
	Position    models.Position     `yaml:"position"`
	Category    models.CategoryType `yaml:"category"`
	Subtype     string              `yaml:"subtype"`
	Label       string              `yaml:"label"`
	Description string              `yaml:"description,omitempty"`
	Icon        string              `yaml:"icon,omitempty"`
	Color       string              `yaml:"color,omitempty"`
	Config      map[string]any      `yaml:"config,omitempty"`
}

type templateEdge struct {
	ID           string `yaml:"id"`
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	SourceHandle string `yaml:"sourceHandle,omitempty"`
	TargetHandle string `yaml:"targetHandle,omitempty"`
	Label        string `yaml:"label,omitempty"`
	Condition    string `yaml:"condition,omitempty"`
}

func (f templateFile) workflow() models.WorkflowInit {
	snapshot := models.WorkflowInit{
		Name:        f.Name,
		Description: f.Description,
		ToolID:      f.ToolID,
		Nodes:       make([]*models.Node, 0, len(f.Nodes)),
		Edges:       make([]*models.Edge, 0, len(f.Edges)),
	}

	for _, n := range f.Nodes {
		nodeType := n.Type
		if nodeType == "" {
			nodeType = models.DefaultNodeType
		}

		config := models.CloneConfig(n.Config)
		if config == nil {
			config = map[string]any{}
		}

		snapshot.Nodes = append(snapshot.Nodes, &models.Node{
			ID:       n.ID,
			Type:     nodeType,
			Position: n.Position,
			Data: models.NodeData{
				Category:    n.Category,
				Subtype:     n.Subtype,
				Label:       n.Label,
				Description: n.Description,
				Icon:        n.Icon,
				Color:       n.Color,
				Config:      config,
			},
		})
	}

	for _, e := range f.Edges {
		edge := &models.Edge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		}

		if e.Label != "" || e.Condition != "" {
			edge.Data = &models.EdgeData{Label: e.Label, Condition: e.Condition}
		}

		snapshot.Edges = append(snapshot.Edges, edge)
	}

	return snapshot
}
