package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// TokenRateLimit limits token-endpoint attempts per send_id or IP using
// Redis if available. The window is a fixed minute; cache failures are
// fail-open so the endpoint never turns a cache outage into a denial.
func TokenRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 20
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		key := strings.TrimSpace(c.FormValue("send_id"))
		if key == "" {
			key = c.IP()
		}
		rkey := "rl:token:" + key
		cnt, err := cache.Incr(c.UserContext(), rkey).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), rkey, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many token requests, try again later")
		}
		return c.Next()
	}
}
