package handlers

import (
	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ResolutionCacheManager exposes the resolution caches
type ResolutionCacheManager interface {
	ResolutionCacheStats() []models.ResolutionCacheStats
	FlushResolutionCaches() int
}

type CacheHandler struct {
	Service ResolutionCacheManager
}

func NewCacheHandler(service ResolutionCacheManager) *CacheHandler {
	return &CacheHandler{Service: service}
}

func (h *CacheHandler) GetResolutionStats(c *fiber.Ctx) error {
	stats := h.Service.ResolutionCacheStats()

	total := 0
	for _, registrar := range stats {
		total += registrar.Size
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
		"total":   total,
	})
}

func (h *CacheHandler) FlushResolution(c *fiber.Ctx) error {
	removed := h.Service.FlushResolutionCaches()
	logrus.WithField("removed", removed).Info("Resolution caches flushed via API")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Resolution caches flushed",
		"removed": removed,
	})
}
