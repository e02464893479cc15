package web

import (
	"fmt"

	"github.com/dukex/propflow/pkg/services"
	"github.com/gofiber/fiber/v3"
)

// editor resolves the :sid route parameter.
func (h *APIHandlers) editor(c fiber.Ctx) (*services.Editor, error) {
	return h.sessions.Get(c.Params("sid"))
}

// bind decodes and validates the JSON body into req.
func (h *APIHandlers) bind(c fiber.Ctx, req any) error {
	if err := c.Bind().JSON(req); err != nil {
		return fmt.Errorf("%w: invalid JSON format", services.ErrInvalidRequest)
	}

	if err := h.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", services.ErrInvalidRequest, err)
	}

	return nil
}

func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	editor := h.sessions.Create()

	return c.Status(fiber.StatusCreated).JSON(SessionResponse{
		ID:    editor.ID(),
		State: editor.State(),
	})
}

func (h *APIHandlers) DeleteSession(c fiber.Ctx) error {
	err := h.sessions.Delete(c.Params("sid"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetState(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(editor.State())
}

func (h *APIHandlers) SetWorkflow(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req SetWorkflowRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	editor.Store().SetWorkflow(req.workflow())

	return c.JSON(editor.State())
}

func (h *APIHandlers) UpdateMetadata(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req UpdateMetadataRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	editor.Store().SetMetadata(req.Name, req.Description, req.ToolID)

	return c.JSON(editor.State())
}

func (h *APIHandlers) ClearWorkflow(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	editor.Clear(c.Context())

	return c.JSON(editor.State())
}

func (h *APIHandlers) Validate(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(editor.Validate())
}

func (h *APIHandlers) Save(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	workflowID, err := editor.Save(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(SaveResponse{
		WorkflowID: workflowID,
		State:      editor.State(),
	})
}

func (h *APIHandlers) Load(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	err = editor.Load(c.Context(), c.Params("workflowId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(editor.State())
}

func (h *APIHandlers) LoadTemplate(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	err = editor.LoadTemplate(c.Context(), c.Params("templateId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(editor.State())
}

func (h *APIHandlers) Select(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req SelectionRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	if req.EdgeID != "" {
		err = editor.Store().SelectEdge(req.EdgeID)
	} else {
		err = editor.Store().SelectNode(req.NodeID)
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(editor.Store().Selection())
}

func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	editor.StartExecution(c.Context())

	return c.JSON(editor.State())
}

func (h *APIHandlers) StopExecution(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	editor.StopExecution(c.Context())

	return c.JSON(editor.State())
}

func (h *APIHandlers) AddExecutionLog(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req ExecutionLogRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	entry := editor.AddExecutionLog(c.Context(), req.entry())

	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *APIHandlers) ClearExecutionLogs(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	editor.Store().ClearExecutionLogs()

	return c.SendStatus(fiber.StatusNoContent)
}
