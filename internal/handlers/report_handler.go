package handlers

import (
	"fmt"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/reporting"
	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reportService *services.ReportService
	pdf           *reporting.PDFGenerator
}

func NewReportHandler(reportService *services.ReportService, pdf *reporting.PDFGenerator) *ReportHandler {
	return &ReportHandler{reportService: reportService, pdf: pdf}
}

// Generate returns a reliability report tiered for the caller. The caller is
// identified by premiumToken, then userToken, then the bearer header; none
// of them is required.
func (h *ReportHandler) Generate(c *fiber.Ctx) error {
	var req dto.ReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	principal := services.Principal{
		AccessToken:  req.PremiumToken,
		SessionToken: req.UserToken,
	}
	if principal.SessionToken == "" {
		principal.SessionToken = middleware.BearerToken(c)
	}

	resp, err := h.reportService.Generate(c.UserContext(), &req, principal)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(resp)
}

func (h *ReportHandler) ExportPDF(c *fiber.Ctx) error {
	var req dto.PDFRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	out, err := h.pdf.Generate(&req)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", reporting.Filename(&req)))
	return c.Send(out)
}
