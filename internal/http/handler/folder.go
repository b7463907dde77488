package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"digiarchive/internal/service"
)

type folderBody struct {
	Name         string  `json:"name"`
	DepartmentID string  `json:"department_id"`
	ParentID     *string `json:"parent_id"`
}

func (h *Handler) registerFolders(r fiber.Router) {
	r.Get("/folders", func(c *fiber.Ctx) error {
		departmentID := c.Query("department_id")
		if departmentID == "" {
			return writeError(c, fiber.StatusBadRequest, "DEPARTMENT_REQUIRED", "department_id is required")
		}
		out, err := h.Folders.ListByDepartment(c.UserContext(), departmentID)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(out)
	})

	r.Post("/folders", func(c *fiber.Ctx) error {
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		var body folderBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		folder, err := h.Folders.Create(c.UserContext(), service.FolderInput(body))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(folder)
	})

	r.Get("/folders/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		folder, err := h.Folders.Get(c.UserContext(), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(folder)
	})

	r.Put("/folders/:id", func(c *fiber.Ctx) error {
		caller, ok := requirePrivileged(c)
		if !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body folderBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		folder, events, err := h.Folders.Update(c.UserContext(), caller.UserID, id, service.FolderInput(body))
		if err != nil {
			return writeDomainError(c, err)
		}
		h.dispatch(c, events)
		return c.JSON(folder)
	})

	r.Delete("/folders/:id", func(c *fiber.Ctx) error {
		caller, ok := requirePrivileged(c)
		if !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		cascade := c.Query("cascade") == "true"
		events, err := h.Folders.Delete(c.UserContext(), caller.UserID, id, cascade)
		if err != nil {
			return writeDomainError(c, err)
		}
		h.dispatch(c, events)
		return c.SendStatus(fiber.StatusNoContent)
	})
}
