package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/constructtrack/platform/internal/core/validation"
)

// APIError is a structured error response.
type APIError struct {
	Status    int                     `json:"status"`
	Code      string                  `json:"code"`    // bad_request, not_found, internal_error, ...
	Message   string                  `json:"message"` // Human-readable message
	Fields    []validation.FieldError `json:"fields,omitempty"`
	RequestID string                  `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errValidation returns a 400 error listing each invalid field.
func errValidation(c *fiber.Ctx, fields validation.FieldErrors) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(fiber.StatusBadRequest).JSON(APIError{
		Status:    fiber.StatusBadRequest,
		Code:      "validation_failed",
		Message:   fields.Error(),
		Fields:    fields,
		RequestID: reqID,
	})
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "unavailable", msg)
}
