package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type tagBody struct {
	Name string `json:"name"`
}

func (h *Handler) registerTags(r fiber.Router) {
	r.Get("/tags", func(c *fiber.Ctx) error {
		out, err := h.Tags.List(c.UserContext())
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(out)
	})

	r.Post("/tags", func(c *fiber.Ctx) error {
		var body tagBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		tag, err := h.Tags.Create(c.UserContext(), body.Name)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tag)
	})

	r.Get("/tags/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		tag, err := h.Tags.Get(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(tag)
	})

	r.Delete("/tags/:id", func(c *fiber.Ctx) error {
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := h.Tags.Delete(c.UserContext(), id); err != nil {
			return writeDomainError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
