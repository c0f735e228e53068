package handlers

import (
	"context"
	"time"

	"github.com/fenilmodi00/allotment-gateway/services"
	"github.com/gofiber/fiber/v2"
)

// RegistrarProber checks registrar reachability
type RegistrarProber interface {
	ProbeRegistrars(ctx context.Context) services.HealthReport
}

type HealthHandler struct {
	Prober RegistrarProber
}

func NewHealthHandler(prober RegistrarProber) *HealthHandler {
	return &HealthHandler{Prober: prober}
}

// GetHealth reports liveness. With ?deep=true every registrar is probed as well.
func (h *HealthHandler) GetHealth(c *fiber.Ctx) error {
	if !c.QueryBool("deep") || h.Prober == nil {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	}

	report := h.Prober.ProbeRegistrars(c.UserContext())
	status := "ok"
	if report.Healthy < report.Total {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"data":      report,
	})
}
