package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/makereel/api/pkg/response"
)

// GatewayAuthMiddleware reads user identity from X-User-* headers
// set by the edge gateway and populates Fiber context locals.
func GatewayAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-Id")
		if userID == "" {
			return response.Unauthorized(c, "Missing user identity headers")
		}

		c.Locals("userId", userID)
		c.Locals("companyId", c.Get("X-Company-Id"))
		c.Locals("email", c.Get("X-User-Email"))

		return c.Next()
	}
}

// GetUserID returns the authenticated user id from context locals.
func GetUserID(c *fiber.Ctx) string {
	if v, ok := c.Locals("userId").(string); ok {
		return v
	}
	return ""
}

// GetCompanyID returns the authenticated company id from context locals.
func GetCompanyID(c *fiber.Ctx) string {
	if v, ok := c.Locals("companyId").(string); ok {
		return v
	}
	return ""
}
