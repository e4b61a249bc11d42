package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/makereel/api/internal/middleware"
	"github.com/makereel/api/internal/model"
	"github.com/makereel/api/internal/service"
	"github.com/makereel/api/internal/store"
	"github.com/makereel/api/pkg/response"
)

type SessionHandler struct {
	service   *service.SessionService
	validator *validator.Validate
}

func NewSessionHandler(svc *service.SessionService, v *validator.Validate) *SessionHandler {
	return &SessionHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req model.CreateSessionRequest
	if err := c.BodyParser(&req); err != nil && err != fiber.ErrUnprocessableEntity {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	companyID := req.CompanyID
	if companyID == "" {
		companyID = middleware.GetCompanyID(c)
	}

	session, err := h.service.Create(c.Context(), middleware.GetUserID(c), companyID)
	if err != nil {
		return serviceError(c, err)
	}

	return response.Created(c, model.CreateSessionResponse{
		SessionID: session.ID,
		CreatedAt: session.CreatedAt,
	})
}

// serviceError maps service/store errors onto the response envelope.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, store.ErrSceneNotFound),
		errors.Is(err, store.ErrHistoryNotFound),
		errors.Is(err, store.ErrJobNotFound),
		errors.Is(err, service.ErrCandidateNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, store.ErrVersionConflict):
		return response.Conflict(c, err.Error())
	default:
		return response.ServiceError(c, err.Error())
	}
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errs := make(map[string]string)
		for _, e := range validationErrors {
			errs[e.Field()] = e.Tag()
		}
		return errs
	}
	return nil
}
