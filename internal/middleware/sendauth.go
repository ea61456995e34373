package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sendvault/sendvault/internal/token"
)

// Locals keys set by SendTokenAuth.
const (
	LocalsSendID = "send_id"
	LocalsScope  = "send_scope"
)

// SendTokenAuth validates a send access bearer token and records the
// granted Send on the request context.
func SendTokenAuth(minter *token.Minter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		id, claims, err := minter.Verify(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(LocalsSendID, id.String())
		c.Locals(LocalsScope, claims.Scope)
		return c.Next()
	}
}
