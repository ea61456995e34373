package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sendvault/sendvault/internal/logging"
)

// Audit emits one structured log line per request. Bodies are never
// logged: token requests carry credentials.
func Audit(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		requestID, _ := c.Locals(requestIDHeader).(string)
		log := logging.WithRequestID(logger, requestID)

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			log.Error("request completed", attrs...)
			return err
		}

		log.Info("request completed", attrs...)
		return nil
	}
}
