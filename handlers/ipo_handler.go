package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ipowatch/dashboard-backend/services"
	"github.com/sirupsen/logrus"
)

// IPOHandler serves the listing endpoints from the orchestration service.
type IPOHandler struct {
	ipoService *services.IPOService
}

// NewIPOHandler creates a new IPO listing handler.
func NewIPOHandler(ipoService *services.IPOService) *IPOHandler {
	return &IPOHandler{ipoService: ipoService}
}

// GetLiveIPOs handles GET /api/live-ipos and returns the mainboard snapshot
// as a JSON array. An upstream failure yields an empty array, never an error
// status; the dashboard renders whatever it gets.
func (h *IPOHandler) GetLiveIPOs(c *fiber.Ctx) error {
	records := h.ipoService.GetMainboardIPOs(c.Context())

	logrus.WithFields(logrus.Fields{
		"handler": "GetLiveIPOs",
		"count":   len(records),
	}).Debug("Serving mainboard IPO listing")

	return c.JSON(records)
}

// GetSMEIPOs handles GET /api/sme-ipos.
func (h *IPOHandler) GetSMEIPOs(c *fiber.Ctx) error {
	records := h.ipoService.GetSMEIPOs(c.Context())

	logrus.WithFields(logrus.Fields{
		"handler": "GetSMEIPOs",
		"count":   len(records),
	}).Debug("Serving SME IPO listing")

	return c.JSON(records)
}

// GetAllIPOs handles GET /api/all-ipos, combining both platforms.
func (h *IPOHandler) GetAllIPOs(c *fiber.Ctx) error {
	response := h.ipoService.GetAllIPOs(c.Context())

	logrus.WithFields(logrus.Fields{
		"handler": "GetAllIPOs",
		"total":   response.Total,
	}).Debug("Serving combined IPO listing")

	return c.JSON(response)
}
