package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"digiarchive/internal/http/middleware"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
	"digiarchive/internal/service"
)

// ocrCallbackBody is the payload delivered by the OCR collaborator.
type ocrCallbackBody struct {
	Text string `json:"text"`
}

type documentPatchBody struct {
	Title            *string    `json:"title"`
	DocumentType     *string    `json:"document_type"`
	DepartmentID     *string    `json:"department_id"`
	ClearDepartment  bool       `json:"clear_department"`
	FolderID         *string    `json:"folder_id"`
	ClearFolder      bool       `json:"clear_folder"`
	TagIDs           *[]string  `json:"tag_ids"`
	Description      *string    `json:"description"`
	ReferenceNumber  *string    `json:"reference_number"`
	Date             *time.Time `json:"date"`
	ClearDate        bool       `json:"clear_date"`
	DeriveDepartment bool       `json:"derive_department"`
}

func (h *Handler) registerDocuments(r fiber.Router) {
	// Upload document (multipart/form-data, field name: file; metadata as form values)
	r.Post("/documents", func(c *fiber.Ctx) error {
		caller := middleware.IdentityFromCtx(c)

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		in := service.CreateDocumentInput{
			Title:            c.FormValue("title"),
			DocumentType:     model.DocumentType(c.FormValue("document_type")),
			Description:      c.FormValue("description"),
			ReferenceNumber:  c.FormValue("reference_number"),
			DeriveDepartment: c.FormValue("derive_department") == "true",
		}
		if v := c.FormValue("department_id"); v != "" {
			in.DepartmentID = &v
		}
		if v := c.FormValue("folder_id"); v != "" {
			in.FolderID = &v
		}
		if v := c.FormValue("tag_ids"); v != "" {
			in.TagIDs = strings.Split(v, ",")
		}
		if v := c.FormValue("date"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date must be YYYY-MM-DD")
			}
			in.Date = &d
		}

		doc, events, err := h.Docs.Upload(c.UserContext(), caller, in, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return writeDomainError(c, err)
		}
		h.dispatch(c, events)
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	// Get document by ID
	r.Get("/documents/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := h.Docs.Get(c.UserContext(), middleware.IdentityFromCtx(c), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(doc)
	})

	// Patch document metadata
	r.Patch("/documents/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var body documentPatchBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		in := service.UpdateDocumentInput{
			Title:            body.Title,
			DepartmentID:     body.DepartmentID,
			ClearDepartment:  body.ClearDepartment,
			FolderID:         body.FolderID,
			ClearFolder:      body.ClearFolder,
			TagIDs:           body.TagIDs,
			Description:      body.Description,
			ReferenceNumber:  body.ReferenceNumber,
			Date:             body.Date,
			ClearDate:        body.ClearDate,
			DeriveDepartment: body.DeriveDepartment,
		}
		if body.DocumentType != nil {
			dt := model.DocumentType(*body.DocumentType)
			in.DocumentType = &dt
		}
		doc, events, err := h.Docs.Update(c.UserContext(), middleware.IdentityFromCtx(c), id, in)
		if err != nil {
			return writeDomainError(c, err)
		}
		h.dispatch(c, events)
		return c.JSON(doc)
	})

	// Delete document by ID
	r.Delete("/documents/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		events, err := h.Docs.Delete(c.UserContext(), middleware.IdentityFromCtx(c), id)
		if err != nil {
			return writeDomainError(c, err)
		}
		h.dispatch(c, events)
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Presigned download URL
	r.Get("/documents/:id/download", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		url, err := h.Docs.PresignDownload(c.UserContext(), middleware.IdentityFromCtx(c), id, 15*time.Minute)
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(fiber.Map{"url": url})
	})

	// OCR completion callback from the extraction collaborator. The pipeline
	// calls with a privileged identity; regular users may not rewrite
	// extracted text.
	r.Post("/documents/:id/ocr", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		var body ocrCallbackBody
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse request body")
		}
		doc, events, err := h.Docs.SetExtractedText(c.UserContext(), id, body.Text)
		if err != nil {
			return writeDomainError(c, err)
		}
		h.dispatch(c, events)
		return c.JSON(doc)
	})

	// Audit trail for a document
	r.Get("/documents/:id/audit", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if _, ok := requirePrivileged(c); !ok {
			return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "privileged access required")
		}
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		offset, _ := strconv.Atoi(c.Query("offset", "0"))
		res, err := h.Audit.ListByEntity(c.UserContext(), "document", id, repository.PageQuery{Limit: limit, Offset: offset})
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(res)
	})
}
