package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sendvault/sendvault/internal/sendaccess"
)

// TokenHandler exposes the OAuth2 token endpoint.
type TokenHandler struct {
	dispatcher *sendaccess.Dispatcher
}

// NewTokenHandler wraps the grant dispatcher.
func NewTokenHandler(dispatcher *sendaccess.Dispatcher) *TokenHandler {
	return &TokenHandler{dispatcher: dispatcher}
}

// Token handles POST /connect/token. Failures are always OAuth2 error
// bodies with status 400; the handler adds nothing to the dispatcher's
// judgment.
func (h *TokenHandler) Token(c *fiber.Ctx) error {
	var req sendaccess.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(sendaccess.GrantError{
			Code:        sendaccess.ErrorInvalidRequest,
			Description: sendaccess.DescGrantTypeInvalid,
		})
	}

	resp, gerr := h.dispatcher.Token(c.UserContext(), req)
	if gerr != nil {
		return c.Status(http.StatusBadRequest).JSON(gerr)
	}
	return c.Status(http.StatusOK).JSON(resp)
}

// RegisterTokenRoutes wires the token endpoint.
func RegisterTokenRoutes(r fiber.Router, h *TokenHandler, rateLimiter fiber.Handler) {
	if rateLimiter != nil {
		r.Post("/connect/token", rateLimiter, h.Token)
	} else {
		r.Post("/connect/token", h.Token)
	}
}
