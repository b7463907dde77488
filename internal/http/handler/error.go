package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"digiarchive/internal/apperr"
	"digiarchive/internal/http/middleware"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return writeErrorDetails(c, status, code, message, nil)
}

func writeErrorDetails(c *fiber.Ctx, status int, code, message string, details map[string]any) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
	return c.Status(status).JSON(res)
}

// writeDomainError maps a typed domain error to its HTTP representation.
// Unknown errors collapse to a generic 500 so internals never leak.
func writeDomainError(c *fiber.Ctx, err error) error {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", nf.Error())
	}
	var val *apperr.ValidationError
	if errors.As(err, &val) {
		return writeErrorDetails(c, fiber.StatusBadRequest, "VALIDATION_ERROR", val.Error(),
			map[string]any{"field": val.Field})
	}
	var mismatch *apperr.FolderDepartmentMismatchError
	if errors.As(err, &mismatch) {
		return writeErrorDetails(c, fiber.StatusConflict, "FOLDER_DEPARTMENT_MISMATCH", mismatch.Error(),
			map[string]any{
				"folder_id":            mismatch.FolderID,
				"folder_department_id": mismatch.FolderDepartmentID,
				"department_id":        mismatch.DepartmentID,
			})
	}
	var filter *apperr.InvalidFilterCombinationError
	if errors.As(err, &filter) {
		return writeError(c, fiber.StatusBadRequest, "INVALID_FILTER_COMBINATION", filter.Error())
	}
	var deps *apperr.HasDependentsError
	if errors.As(err, &deps) {
		return writeErrorDetails(c, fiber.StatusConflict, "HAS_DEPENDENTS", deps.Error(),
			map[string]any{"dependents": deps.Dependents})
	}
	if apperr.IsSearchUnavailable(err) {
		return writeError(c, fiber.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "search is temporarily unavailable")
	}
	if apperr.IsBackendTimeout(err) {
		return writeError(c, fiber.StatusGatewayTimeout, "BACKEND_TIMEOUT", "search backend timed out")
	}
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "missing or invalid identity")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
