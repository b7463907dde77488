package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request id between services.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is where the id is stored in fiber locals.
	RequestIDLocalKey = "request_id"
)

// RequestID assigns every request an id: the incoming X-Request-ID when
// present, a fresh UUID otherwise. The id is stored in locals for handlers
// and echoed on the response so clients can correlate error envelopes and
// audit entries with their calls.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}
