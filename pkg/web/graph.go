package web

import (
	"github.com/dukex/propflow/pkg/models"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req AddNodeRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	var node *models.Node
	if req.fromCatalog() {
		node, err = editor.AddCatalogNode(req.Subtype, req.Position)
	} else {
		node, err = editor.Store().AddNode(req.input())
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) UpdateNode(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req UpdateNodeRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	nodeID := c.Params("nodeId")

	err = editor.UpdateNode(nodeID, req.patch())
	if err != nil {
		return handleServiceError(c, err)
	}

	node, err := editor.Store().Node(nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

// UpdateNodeConfig takes the raw text of the configuration editor as the body.
func (h *APIHandlers) UpdateNodeConfig(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	nodeID := c.Params("nodeId")

	err = editor.UpdateNodeConfigJSON(nodeID, c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	node, err := editor.Store().Node(nodeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	err = editor.Store().DeleteNode(c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ApplyNodeChanges(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req NodeChangesRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	err = editor.Store().ApplyNodeChanges(req.Changes)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(editor.State())
}

func (h *APIHandlers) AddEdge(c fiber.Ctx) error {
	return h.connect(c, false)
}

// Connect handles the drag-to-connect gesture of the canvas.
func (h *APIHandlers) Connect(c fiber.Ctx) error {
	return h.connect(c, true)
}

func (h *APIHandlers) connect(c fiber.Ctx, gesture bool) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req ConnectRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	var edge *models.Edge
	if gesture {
		edge, err = editor.Store().OnConnect(req.connection())
	} else {
		edge, err = editor.Store().AddEdge(req.connection())
	}

	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edge)
}

func (h *APIHandlers) UpdateEdge(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req models.EdgePatch
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	edgeID := c.Params("edgeId")

	err = editor.Store().UpdateEdge(edgeID, req)
	if err != nil {
		return handleServiceError(c, err)
	}

	edge, err := editor.Store().Edge(edgeID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(edge)
}

func (h *APIHandlers) DeleteEdge(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	err = editor.Store().DeleteEdge(c.Params("edgeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ApplyEdgeChanges(c fiber.Ctx) error {
	editor, err := h.editor(c)
	if err != nil {
		return handleServiceError(c, err)
	}

	var req EdgeChangesRequest
	if err := h.bind(c, &req); err != nil {
		return handleServiceError(c, err)
	}

	err = editor.Store().ApplyEdgeChanges(req.Changes)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(editor.State())
}
