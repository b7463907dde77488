package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Operator endpoints. Repair stays explicit: the sweep only reports, and
// reconcile touches one named document at a time.
func (h *Handler) registerAdmin(r fiber.Router) {
	admin := r.Group("/admin")

	admin.Post("/consistency/sweep", func(c *fiber.Ctx) error {
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		ids, err := h.Guard.AuditSweep(c.UserContext())
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{
			"inconsistent_count": len(ids),
			"document_ids":       ids,
		})
	})

	admin.Post("/consistency/reconcile/:id", func(c *fiber.Ctx) error {
		caller, ok := requirePrivileged(c)
		if !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, events, err := h.Guard.Reconcile(c.UserContext(), id, caller.UserID)
		if err != nil {
			return writeDomainError(c, err)
		}
		h.dispatch(c, events)
		return c.JSON(doc)
	})

	admin.Post("/index/rebuild", func(c *fiber.Ctx) error {
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		n, err := h.Sync.Rebuild(c.UserContext())
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{"indexed": n})
	})
}
