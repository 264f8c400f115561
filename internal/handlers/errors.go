package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/reporting"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Order matters: the first matching target wins. An empty message means the
// error text itself is safe to show.
var errorMappings = []errorMapping{
	{services.ErrValidation, fiber.StatusBadRequest, "validation_error", ""},
	{reporting.ErrNoReportData, fiber.StatusBadRequest, "validation_error", ""},
	{services.ErrUnknownPlan, fiber.StatusBadRequest, "unknown_plan", ""},
	{services.ErrSignature, fiber.StatusBadRequest, "invalid_signature", "Invalid webhook signature"},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "invalid_credentials", ""},
	{services.ErrInvalidToken, fiber.StatusUnauthorized, "invalid_token", ""},
	{services.ErrUserNotFound, fiber.StatusNotFound, "user_not_found", "User not found"},
	{services.ErrEntitlementNotFound, fiber.StatusNotFound, "entitlement_not_found", ""},
	{services.ErrNoBillingCustomer, fiber.StatusNotFound, "no_billing_customer", ""},
	{services.ErrEmailTaken, fiber.StatusConflict, "email_taken", ""},
	{services.ErrExternalService, fiber.StatusBadGateway, "external_service_error", "Upstream service failed. Please try again."},
	{services.ErrBillingDisabled, fiber.StatusServiceUnavailable, "billing_disabled", "Billing is not configured"},
	{database.ErrUnavailable, fiber.StatusServiceUnavailable, "service_unavailable", "Service temporarily unavailable"},
}

// respondError writes the standard error body for err. Unknown errors become
// a generic 500 and are logged with the request id.
func respondError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		if m.status >= fiber.StatusInternalServerError {
			slog.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"request_id", requestID(c),
				"error", err,
			)
		}
		return c.Status(m.status).JSON(dto.ErrorResponse{Error: true, Code: m.code, Message: message})
	}

	slog.Error("unhandled request error",
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
		"error", err,
	)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Code: "internal_error", Message: "Internal server error",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Code: "bad_request", Message: message,
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Code: "unauthorized", Message: "Unauthorized",
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
