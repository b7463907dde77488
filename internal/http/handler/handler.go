// Package handler wires the HTTP surface to the services. Handlers stay thin:
// parse, call the service, translate errors, dispatch the returned events.
package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"digiarchive/internal/consistency"
	"digiarchive/internal/event"
	"digiarchive/internal/http/middleware"
	"digiarchive/internal/index"
	"digiarchive/internal/model"
	"digiarchive/internal/repository"
	"digiarchive/internal/service"
)

// Handler bundles the dependencies of the HTTP routes.
type Handler struct {
	DB          *sql.DB
	Docs        service.DocumentService
	Search      service.SearchService
	Departments service.DepartmentService
	Folders     service.FolderService
	Tags        service.TagService
	Audit       repository.AuditLogRepository
	Guard       *consistency.Guard
	Sync        *index.Synchronizer
	Dispatcher  event.Dispatcher
	Log         *logrus.Logger
}

// RegisterRoutes attaches all HTTP routes to the provided Fiber app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	h.registerDocs(app)

	// Health endpoint checks DB connectivity; /healthz is a bare liveness probe.
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	api := app.Group("/", middleware.Identity())

	h.registerDocuments(api)
	h.registerSearch(api)
	h.registerDepartments(api)
	h.registerFolders(api)
	h.registerTags(api)
	h.registerAdmin(api)
}

// dispatch fans mutation events out with per-request metadata attached.
func (h *Handler) dispatch(c *fiber.Ctx, events []event.Event) {
	if len(events) == 0 {
		return
	}
	meta := event.Meta{
		RequestID: requestIDFromCtx(c),
		IPAddress: c.IP(),
		UserAgent: c.Get("User-Agent"),
	}
	h.Dispatcher.Dispatch(c.UserContext(), meta, events...)
}

// requirePrivileged guards operator endpoints.
func requirePrivileged(c *fiber.Ctx) (model.Identity, bool) {
	caller := middleware.IdentityFromCtx(c)
	return caller, caller.Privileged
}
