package handlers

import (
	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/gofiber/fiber/v2"
)

// RegistrarDirectory lists registrars and their in-process check summaries
type RegistrarDirectory interface {
	ListSupportedRegistrars() []models.RegistrarProfile
	RegistrarMetrics() []shared.RegistrarMetricsSnapshot
	ResetRegistrarMetrics() int
}

type RegistrarHandler struct {
	Service RegistrarDirectory
}

func NewRegistrarHandler(service RegistrarDirectory) *RegistrarHandler {
	return &RegistrarHandler{Service: service}
}

func (h *RegistrarHandler) GetRegistrars(c *fiber.Ctx) error {
	registrars := h.Service.ListSupportedRegistrars()
	return c.JSON(fiber.Map{
		"success": true,
		"data":    registrars,
		"count":   len(registrars),
	})
}

// GetRegistrarStats returns success rates and latency percentiles per registrar
func (h *RegistrarHandler) GetRegistrarStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Service.RegistrarMetrics(),
	})
}

func (h *RegistrarHandler) ResetRegistrarStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"reset":   h.Service.ResetRegistrarMetrics(),
	})
}
