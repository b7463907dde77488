package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"digiarchive/internal/http/middleware"
	"digiarchive/internal/search"
)

func (h *Handler) registerSearch(r fiber.Router) {
	r.Get("/search", func(c *fiber.Ctx) error {
		req := search.Request{
			Query:        c.Query("q"),
			DepartmentID: c.Query("department_id"),
			FolderID:     c.Query("folder_id"),
			DocumentType: c.Query("document_type"),
			UploadedBy:   c.Query("uploaded_by"),
			Sort:         c.Query("sort"),
			Backend:      search.Backend(c.Query("backend")),
		}
		if v := c.Query("tag_ids"); v != "" {
			req.TagIDs = strings.Split(v, ",")
		}
		if v := c.Query("date_from"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_from must be YYYY-MM-DD")
			}
			req.DateFrom = &d
		}
		if v := c.Query("date_to"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_to must be YYYY-MM-DD")
			}
			req.DateTo = &d
		}
		if v := c.Query("ocr_processed"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BOOL", "ocr_processed must be a boolean")
			}
			req.OCRProcessed = &b
		}
		if v := c.Query("page"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
			}
			req.Page = p
		}
		if v := c.Query("page_size"); v != "" {
			s, err := strconv.Atoi(v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE_SIZE", "invalid page_size")
			}
			req.PageSize = s
		}
		switch req.Backend {
		case "", search.BackendRelational, search.BackendIndex:
		default:
			return writeError(c, fiber.StatusBadRequest, "INVALID_BACKEND", "backend must be relational or index")
		}

		res, err := h.Search.Search(c.UserContext(), middleware.IdentityFromCtx(c), req)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	})

	r.Get("/search/suggestions", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		out, err := h.Search.Suggestions(c.UserContext(), c.Query("q"), limit)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{"suggestions": out})
	})
}
