package middleware

import (
	"github.com/gofiber/fiber/v2"

	"digiarchive/internal/model"
)

const (
	// IdentityLocalKey is the key used to store the caller identity in Fiber's context locals.
	IdentityLocalKey = "identity"

	userIDHeader     = "X-User-ID"
	privilegedHeader = "X-User-Privileged"
)

// Identity resolves the caller identity forwarded by the auth collaborator.
// Authentication itself happens upstream; this middleware only trusts the
// forwarded headers. Requests without a user id are rejected.
func Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get(userIDHeader)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing user identity")
		}
		c.Locals(IdentityLocalKey, model.Identity{
			UserID:     userID,
			Privileged: c.Get(privilegedHeader) == "true",
		})
		return c.Next()
	}
}

// IdentityFromCtx returns the identity stored by Identity, or a zero value.
func IdentityFromCtx(c *fiber.Ctx) model.Identity {
	if v := c.Locals(IdentityLocalKey); v != nil {
		if id, ok := v.(model.Identity); ok {
			return id
		}
	}
	return model.Identity{}
}
