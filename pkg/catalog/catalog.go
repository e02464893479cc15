// Package catalog lists the node subtypes the editor can create, grouped by category,
// together with the JSON Schema of each subtype's configuration.
package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/propflow/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownSubtype = errors.New("unknown node subtype")
	ErrInvalidConfig  = errors.New("invalid node config")
)

// ConfigError lists the schema violations of a node configuration.
type ConfigError struct {
	Subtype  string
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config for %s: %s", e.Subtype, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Definition describes a creatable node subtype.
type Definition struct {
	Category    models.CategoryType `json:"category"`
	Subtype     string              `json:"subtype"`
	Label       string              `json:"label"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	Color       string              `json:"color"`
	Schema      map[string]any      `json:"schema"`
}

// Catalog is an immutable set of definitions, safe for concurrent use.
type Catalog struct {
	definitions []Definition
	bySubtype   map[string]int
	schemas     map[string]*gojsonschema.Schema
}

// New builds a catalog from definitions. Subtypes must be unique and categories valid.
func New(definitions []Definition) (*Catalog, error) {
	c := &Catalog{
		definitions: make([]Definition, 0, len(definitions)),
		bySubtype:   make(map[string]int, len(definitions)),
		schemas:     make(map[string]*gojsonschema.Schema, len(definitions)),
	}

	for _, def := range definitions {
		if !def.Category.Valid() {
			return nil, fmt.Errorf("definition %s: invalid category %q", def.Subtype, def.Category)
		}

		if _, exists := c.bySubtype[def.Subtype]; exists {
			return nil, fmt.Errorf("duplicate subtype %q", def.Subtype)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.Schema))
		if err != nil {
			return nil, fmt.Errorf("definition %s: invalid schema: %w", def.Subtype, err)
		}

		c.bySubtype[def.Subtype] = len(c.definitions)
		c.schemas[def.Subtype] = schema
		c.definitions = append(c.definitions, def)
	}

	return c, nil
}

// Default returns the catalog of built-in property management nodes.
func Default() *Catalog {
	c, err := New(builtinDefinitions())
	if err != nil {
		panic(err)
	}

	return c
}

// List returns every definition in catalog order.
func (c *Catalog) List() []Definition {
	return slices.Clone(c.definitions)
}

// ByCategory groups the definitions by category. Every category is present, possibly
// with no definitions.
func (c *Catalog) ByCategory() map[models.CategoryType][]Definition {
	groups := make(map[models.CategoryType][]Definition, len(models.Categories))
	for _, category := range models.Categories {
		groups[category] = []Definition{}
	}

	for _, def := range c.definitions {
		groups[def.Category] = append(groups[def.Category], def)
	}

	return groups
}

// Get returns the definition of subtype.
func (c *Catalog) Get(subtype string) (Definition, error) {
	idx, ok := c.bySubtype[subtype]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownSubtype, subtype)
	}

	return c.definitions[idx], nil
}

// CreationPayload returns the input for graph.Store.AddNode when a subtype is dropped on
// the canvas. The config starts empty and the position is left to the caller.
func (c *Catalog) CreationPayload(subtype string) (models.NodeInput, error) {
	def, err := c.Get(subtype)
	if err != nil {
		return models.NodeInput{}, err
	}

	return models.NodeInput{
		Type:        models.DefaultNodeType,
		Category:    def.Category,
		Subtype:     def.Subtype,
		Label:       def.Label,
		Description: def.Description,
		Icon:        def.Icon,
		Color:       def.Color,
		Config:      map[string]any{},
	}, nil
}

// ValidateConfig checks config against the subtype's schema. Schedule triggers also need
// a parseable cron expression.
func (c *Catalog) ValidateConfig(subtype string, config map[string]any) error {
	schema, ok := c.schemas[subtype]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSubtype, subtype)
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("failed to validate config for %s: %w", subtype, err)
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}

	if subtype == SubtypeSchedule {
		if expr, ok := config["cron"].(string); ok && expr != "" {
			timezone, _ := config["timezone"].(string)
			if _, err := ParseSchedule(expr, timezone); err != nil {
				problems = append(problems, "cron: "+err.Error())
			}
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Subtype: subtype, Problems: problems}
	}

	return nil
}
