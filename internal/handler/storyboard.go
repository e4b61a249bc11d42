package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/pkg/response"
)

type StoryboardHandler struct {
	service   *service.StoryboardService
	validator *validator.Validate
}

func NewStoryboardHandler(svc *service.StoryboardService, v *validator.Validate) *StoryboardHandler {
	return &StoryboardHandler{
		service:   svc,
		validator: v,
	}
}

// Load handles GET /api/sessions/:sessionId/storyboard
func (h *StoryboardHandler) Load(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	scenes, version, err := h.service.Load(c.Context(), sessionID)
	if err != nil {
		return serviceError(c, err)
	}

	return response.OK(c, model.StoryboardResponse{
		SessionID: sessionID,
		Version:   version,
		Scenes:    scenes,
	})
}

// Save handles PUT /api/sessions/:sessionId/storyboard
func (h *StoryboardHandler) Save(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	var req model.SaveStoryboardRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	scenes, version, err := h.service.Save(c.Context(), sessionID, req.Scenes, req.ExpectedVersion)
	if err != nil {
		return serviceError(c, err)
	}

	return response.OK(c, model.StoryboardResponse{
		SessionID: sessionID,
		Version:   version,
		Scenes:    scenes,
	})
}

// UpdateScene handles PATCH /api/sessions/:sessionId/scenes/:sceneId
func (h *StoryboardHandler) UpdateScene(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	sceneID := c.Params("sceneId")

	var req struct {
		model.SceneUpdate
		ExpectedVersion int64 `json:"expectedVersion"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	scenes, version, err := h.service.UpdateScene(c.Context(), sessionID, sceneID, req.SceneUpdate, req.ExpectedVersion)
	if err != nil {
		return serviceError(c, err)
	}

	return response.OK(c, model.StoryboardResponse{
		SessionID: sessionID,
		Version:   version,
		Scenes:    scenes,
	})
}
