package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// MaxWebhookBody caps Stripe deliveries; real events are far smaller.
const MaxWebhookBody = 1 << 20

type WebhookHandler struct {
	billingService *services.BillingService
}

func NewWebhookHandler(billingService *services.BillingService) *WebhookHandler {
	return &WebhookHandler{billingService: billingService}
}

// HandleStripe verifies and reconciles one Stripe delivery. The body is used
// exactly as received; any re-encoding would break the signature.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	start := time.Now()

	body := c.Body()
	if len(body) > MaxWebhookBody {
		metrics.WebhookRequestsTotal.WithLabelValues("unknown", strconv.Itoa(fiber.StatusRequestEntityTooLarge)).Inc()
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(dto.ErrorResponse{
			Error: true, Code: "payload_too_large", Message: "Payload too large",
		})
	}
	payload := append([]byte(nil), body...)

	result, err := h.billingService.Reconcile(c.UserContext(), payload, c.Get("Stripe-Signature"))
	status := webhookStatus(err)

	metrics.WebhookRequestsTotal.WithLabelValues(result.EventType, strconv.Itoa(status)).Inc()
	metrics.WebhookDuration.WithLabelValues(result.EventType).Observe(time.Since(start).Seconds())

	if err != nil {
		logger := slog.With("event_id", result.EventID, "event_type", result.EventType, "request_id", requestID(c))
		if status == fiber.StatusBadRequest {
			logger.Warn("stripe webhook rejected", "error", err)
		} else {
			logger.Error("stripe webhook failed", "error", err)
		}
		return respondWebhookError(c, status, err)
	}

	slog.Info("stripe webhook processed",
		"event_id", result.EventID,
		"event_type", result.EventType,
		"status", result.Status,
	)
	return c.JSON(dto.WebhookAck{Received: true, Status: result.Status})
}

func webhookStatus(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, services.ErrSignature), errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrBillingDisabled):
		return fiber.StatusServiceUnavailable
	default:
		// Stripe retries anything non-2xx.
		return fiber.StatusInternalServerError
	}
}

func respondWebhookError(c *fiber.Ctx, status int, err error) error {
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(dto.ErrorResponse{
			Error: true, Code: "webhook_processing_failed", Message: "Failed to process webhook event",
		})
	}
	return respondError(c, err)
}
