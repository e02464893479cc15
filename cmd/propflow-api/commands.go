package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dukex/propflow/pkg/log"
	"github.com/dukex/propflow/pkg/models"
	"github.com/dukex/propflow/pkg/templates"
	"github.com/dukex/propflow/pkg/validation"
	cli "github.com/urfave/cli/v3"
)

var errWorkflowInvalid = errors.New("workflow is invalid")

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a saved workflow (JSON) or a template (YAML) file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow file",
				Required: true,
			},
		},
		Action: func(_ context.Context, command *cli.Command) error {
			snapshot, err := readWorkflowFile(command.String("file"))
			if err != nil {
				return err
			}

			return printValidation(command.Root().Writer, snapshot)
		},
	}
}

func templatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "List the workflow templates",
		Action: func(_ context.Context, command *cli.Command) error {
			loader, err := newTemplateLoader(command.Root().String("templates-dir"))
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(command.Root().Writer, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tTOOL\tNODES\tEDGES")

			for _, summary := range loader.List() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
					summary.ID, summary.Name, summary.ToolID, summary.NodeCount, summary.EdgeCount)
			}

			return w.Flush()
		},
	}
}

func newTemplateLoader(dir string) (*templates.Loader, error) {
	if dir == "" {
		return templates.NewDefaultLoader()
	}

	return templates.NewLoader(os.DirFS(dir))
}

func readWorkflowFile(path string) (models.WorkflowInit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.WorkflowInit{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return templates.Parse(raw)
	default:
		var record models.WorkflowRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return models.WorkflowInit{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		return record.Init(), nil
	}
}

// printValidation reports on the file exactly as read, so structural damage in a stored
// record shows up instead of being repaired away.
func printValidation(w io.Writer, snapshot models.WorkflowInit) error {
	result := validation.New(log.WithModule("cli")).Validate(models.Workflow{
		ID:          snapshot.ID,
		Name:        snapshot.Name,
		Description: snapshot.Description,
		ToolID:      snapshot.ToolID,
		Nodes:       snapshot.Nodes,
		Edges:       snapshot.Edges,
	})

	for _, issue := range result.Errors {
		_, _ = fmt.Fprintf(w, "error   %s: %s\n", issue.Code, issue.Message)
	}

	for _, issue := range result.Warnings {
		_, _ = fmt.Fprintf(w, "warning %s: %s\n", issue.Code, issue.Message)
	}

	if !result.IsValid {
		return fmt.Errorf("%w: %d error(s)", errWorkflowInvalid, len(result.Errors))
	}

	_, _ = fmt.Fprintln(w, "workflow is valid")

	return nil
}
