package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/makereel/api/internal/middleware"
	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/pkg/response"
)

type MatchHandler struct {
	service   *service.MatchService
	validator *validator.Validate
}

func NewMatchHandler(svc *service.MatchService, v *validator.Validate) *MatchHandler {
	return &MatchHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/sessions/:sessionId/scenes/:sceneId/match
func (h *MatchHandler) Start(c *fiber.Ctx) error {
	var req model.MatchStartRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	// The payload outlives this request (it is processed asynchronously), so
	// copy the fasthttp-buffer-backed strings before they are recycled.
	result, err := h.service.StartMatch(c.Context(), model.MatchJobPayload{
		SessionID: utils.CopyString(c.Params("sessionId")),
		SceneID:   utils.CopyString(c.Params("sceneId")),
		UserID:    utils.CopyString(middleware.GetUserID(c)),
		Mode:      req.Mode,
		Notes:     req.Notes,
	})
	if err != nil {
		return serviceError(c, err)
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/match/status/:jobId
func (h *MatchHandler) Status(c *fiber.Ctx) error {
	result, err := h.service.GetStatus(c.Context(), c.Params("jobId"))
	if err != nil {
		return serviceError(c, err)
	}
	return response.OK(c, result)
}
