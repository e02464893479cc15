// Package web provides the HTTP handlers behind the workflow builder canvas.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/propflow/pkg/catalog"
	"github.com/dukex/propflow/pkg/services"
	"github.com/dukex/propflow/pkg/templates"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	sessions  *services.Sessions
	workflows *services.Workflows
	catalog   *catalog.Catalog
	templates *templates.Loader
	validator *validator.Validate
}

func NewAPIHandlers(
	sessions *services.Sessions,
	workflows *services.Workflows,
	catalog *catalog.Catalog,
	templates *templates.Loader,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		sessions:  sessions,
		workflows: workflows,
		catalog:   catalog,
		templates: templates,
		validator: validator,
	}
}

// RegisterRoutes mounts every editor endpoint on router.
func (h *APIHandlers) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/catalog", h.GetCatalog)
	router.Get("/templates", h.GetTemplates)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Get("/:id", h.GetWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)

	s := router.Group("/sessions")
	s.Post("/", h.CreateSession)
	s.Delete("/:sid", h.DeleteSession)

	s.Get("/:sid/workflow", h.GetState)
	s.Put("/:sid/workflow", h.SetWorkflow)
	s.Patch("/:sid/workflow", h.UpdateMetadata)
	s.Delete("/:sid/workflow", h.ClearWorkflow)

	s.Post("/:sid/nodes", h.AddNode)
	s.Post("/:sid/nodes/changes", h.ApplyNodeChanges)
	s.Patch("/:sid/nodes/:nodeId", h.UpdateNode)
	s.Put("/:sid/nodes/:nodeId/config", h.UpdateNodeConfig)
	s.Delete("/:sid/nodes/:nodeId", h.DeleteNode)

	s.Post("/:sid/edges", h.AddEdge)
	s.Post("/:sid/connect", h.Connect)
	s.Post("/:sid/edges/changes", h.ApplyEdgeChanges)
	s.Patch("/:sid/edges/:edgeId", h.UpdateEdge)
	s.Delete("/:sid/edges/:edgeId", h.DeleteEdge)

	s.Put("/:sid/selection", h.Select)
	s.Post("/:sid/validate", h.Validate)
	s.Post("/:sid/save", h.Save)
	s.Post("/:sid/load/:workflowId", h.Load)
	s.Post("/:sid/templates/:templateId", h.LoadTemplate)

	s.Post("/:sid/execution/start", h.StartExecution)
	s.Post("/:sid/execution/stop", h.StopExecution)
	s.Post("/:sid/execution/logs", h.AddExecutionLog)
	s.Delete("/:sid/execution/logs", h.ClearExecutionLogs)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.workflows.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Propflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Propflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"sessions":  h.sessions.Len(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetCatalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"nodes":      h.catalog.List(),
		"categories": h.catalog.ByCategory(),
	})
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(h.templates.List())
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflows.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	workflow, err := h.workflows.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflows.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
