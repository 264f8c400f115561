package handlers

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	billingService     *services.BillingService
	entitlementService *services.EntitlementService
}

func NewAdminHandler(billingService *services.BillingService, entitlementService *services.EntitlementService) *AdminHandler {
	return &AdminHandler{billingService: billingService, entitlementService: entitlementService}
}

// Webhooks lists the latest reconciliation attempts. ?limit= caps the rows.
func (h *AdminHandler) Webhooks(c *fiber.Ctx) error {
	rows, err := h.billingService.History(c.UserContext(), c.QueryInt("limit", 100))
	if err != nil {
		return respondError(c, err)
	}

	out := make([]dto.WebhookLogResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.WebhookLogResponse{
			ID:               r.ID.String(),
			EventID:          r.EventID,
			EventType:        r.EventType,
			ProcessingStatus: r.ProcessingStatus,
			ErrorMessage:     r.ErrorMessage,
			CreatedAt:        r.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"webhooks": out})
}

func (h *AdminHandler) Grant(c *fiber.Ctx) error {
	var req dto.GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	rec, err := h.entitlementService.Grant(c.UserContext(), req.Email, req.Plan, req.PeriodEnd)
	if err != nil {
		return respondError(c, err)
	}

	slog.Info("entitlement granted manually", "user_id", rec.UserID, "plan", rec.Plan, "request_id", requestID(c))
	plan := rec.Plan
	return c.JSON(dto.EntitlementResponse{
		IsEntitled: rec.IsEntitled(time.Now()),
		Plan:       &plan,
		Status:     rec.Status,
		PeriodEnd:  rec.PeriodEnd,
	})
}
