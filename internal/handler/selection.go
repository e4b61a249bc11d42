package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/pkg/response"
)

type SelectionHandler struct {
	service   *service.SelectionService
	validator *validator.Validate
}

func NewSelectionHandler(svc *service.SelectionService, v *validator.Validate) *SelectionHandler {
	return &SelectionHandler{
		service:   svc,
		validator: v,
	}
}

// Select handles POST /api/sessions/:sessionId/scenes/:sceneId/select
func (h *SelectionHandler) Select(c *fiber.Ctx) error {
	var req model.SelectCandidateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	matched, version, err := h.service.SelectCandidate(
		c.Context(), c.Params("sessionId"), c.Params("sceneId"), req.CandidateIndex, req.ExpectedVersion)
	if err != nil {
		return serviceError(c, err)
	}

	return response.OK(c, fiber.Map{
		"matchedScene": matched,
		"version":      version,
	})
}

// Restore handles POST /api/sessions/:sessionId/scenes/:sceneId/restore
func (h *SelectionHandler) Restore(c *fiber.Ctx) error {
	var req model.RestoreSelectionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	matched, version, err := h.service.RestoreFromHistory(
		c.Context(), c.Params("sessionId"), c.Params("sceneId"), req.HistoryIndex, req.ExpectedVersion)
	if err != nil {
		return serviceError(c, err)
	}

	return response.OK(c, fiber.Map{
		"matchedScene": matched,
		"version":      version,
	})
}

// History handles GET /api/sessions/:sessionId/history/:sceneId
func (h *SelectionHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.Context(), c.Params("sessionId"), c.Params("sceneId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, fiber.Map{
		"entries": entries,
	})
}
