package handlers

import (
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type BillingHandler struct {
	checkoutService *services.CheckoutService
}

func NewBillingHandler(checkoutService *services.CheckoutService) *BillingHandler {
	return &BillingHandler{checkoutService: checkoutService}
}

func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	url, err := h.checkoutService.CreateCheckout(c.UserContext(), userID, req.Plan)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.RedirectResponse{URL: url})
}

func (h *BillingHandler) Portal(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return unauthorized(c)
	}

	url, err := h.checkoutService.CreatePortal(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.RedirectResponse{URL: url})
}
