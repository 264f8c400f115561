package handlers

import (
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type EntitlementHandler struct {
	entitlementService *services.EntitlementService
}

func NewEntitlementHandler(entitlementService *services.EntitlementService) *EntitlementHandler {
	return &EntitlementHandler{entitlementService: entitlementService}
}

// Me reports the entitlement behind the bearer session. Without a valid
// session the answer is the anonymous one, not an error. The access token is
// returned to its owner so clients can check status without a session.
func (h *EntitlementHandler) Me(c *fiber.Ctx) error {
	decision, err := h.entitlementService.Check(c.UserContext(), services.Principal{
		SessionToken: middleware.BearerToken(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	resp := entitlementResponse(decision)
	if decision.Record != nil {
		resp.AccessToken = decision.Record.AccessToken
	}
	return c.JSON(resp)
}

// Check answers for an opaque access token sent in the body.
func (h *EntitlementHandler) Check(c *fiber.Ctx) error {
	var req dto.EntitlementCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	decision, err := h.entitlementService.Check(c.UserContext(), services.Principal{
		AccessToken: req.PremiumToken,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(entitlementResponse(decision))
}

func entitlementResponse(d services.Decision) dto.EntitlementResponse {
	resp := dto.EntitlementResponse{IsEntitled: d.IsEntitled, Plan: d.Plan}
	if d.Record != nil {
		resp.Status = d.Record.Status
		resp.PeriodEnd = d.Record.PeriodEnd
	}
	return resp
}
