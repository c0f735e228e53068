package handlers

import (
	"github.com/fenilmodi00/allotment-gateway/jobs"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// CacheSweepJob is the background cleanup job, runnable on demand
type CacheSweepJob interface {
	Run() jobs.CleanupReport
}

type AdminHandler struct {
	CleanupJob CacheSweepJob
}

func NewAdminHandler(cleanupJob CacheSweepJob) *AdminHandler {
	return &AdminHandler{CleanupJob: cleanupJob}
}

// TriggerCacheSweep manually runs the resolution cache cleanup job
func (h *AdminHandler) TriggerCacheSweep(c *fiber.Ctx) error {
	logrus.Info("Manual resolution cache sweep triggered via admin endpoint")

	report := h.CleanupJob.Run()
	if report.Error != "" {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   report.Error,
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Resolution cache sweep completed",
		"removed":     report.Removed,
		"duration_ms": report.Duration.Milliseconds(),
	})
}
