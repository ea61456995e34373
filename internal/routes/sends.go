package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sendvault/sendvault/internal/middleware"
)

// RegisterSendAccessRoutes exposes a GET endpoint proving an access grant:
// it echoes the claims the bearer token carries for the requested Send.
// Send content itself is served elsewhere.
func RegisterSendAccessRoutes(r fiber.Router) {
	r.Get("/sends/:id", func(c *fiber.Ctx) error {
		granted, _ := c.Locals(middleware.LocalsSendID).(string)
		scope, _ := c.Locals(middleware.LocalsScope).(string)
		if granted == "" {
			return fiber.NewError(http.StatusUnauthorized, "unauthorized")
		}
		if c.Params("id") != granted {
			// A token is scoped to exactly one Send.
			return fiber.NewError(http.StatusForbidden, "token not valid for this send")
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"send_id": granted,
			"scope":   scope,
		})
	})
}
