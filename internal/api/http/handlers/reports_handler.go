package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-triage-service/internal/service"
)

// ReportsHandler serves aggregate admin reports.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reportService}
}

// Weekly GET /admin/reports/weekly.
func (h *ReportsHandler) Weekly(c *fiber.Ctx) error {
	report, err := h.reports.WeeklyReport(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
