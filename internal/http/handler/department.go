package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"digiarchive/internal/service"
)

type departmentBody struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	ParentID *string `json:"parent_id"`
}

func (h *Handler) registerDepartments(r fiber.Router) {
	r.Get("/departments", func(c *fiber.Ctx) error {
		out, err := h.Departments.List(c.UserContext())
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(out)
	})

	r.Post("/departments", func(c *fiber.Ctx) error {
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		var body departmentBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		dept, err := h.Departments.Create(c.UserContext(), service.DepartmentInput(body))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(dept)
	})

	r.Get("/departments/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		dept, err := h.Departments.Get(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(dept)
	})

	r.Put("/departments/:id", func(c *fiber.Ctx) error {
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body departmentBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		dept, err := h.Departments.Update(c.UserContext(), id, service.DepartmentInput(body))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(dept)
	})

	r.Delete("/departments/:id", func(c *fiber.Ctx) error {
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := h.Departments.Delete(c.UserContext(), id); err != nil {
			return writeDomainError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
