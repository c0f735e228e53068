package handlers

import (
	"context"
	"errors"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AllotmentChecker is the part of the allotment service the check routes need
type AllotmentChecker interface {
	CheckAllotment(ctx context.Context, req models.AllotmentRequest, relaxedPAN bool) ([]models.AllotmentResult, error)
}

type CheckHandler struct {
	Service AllotmentChecker
}

func NewCheckHandler(service AllotmentChecker) *CheckHandler {
	return &CheckHandler{Service: service}
}

// CheckAllotment handles POST /allotment/check. PANs must be in the full ten-character format.
func (h *CheckHandler) CheckAllotment(c *fiber.Ctx) error {
	type Request struct {
		PAN       string `json:"pan"`
		IPO       string `json:"ipo"`
		Registrar string `json:"registrar"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}

	return h.check(c, models.AllotmentRequest{
		PANNumber:     req.PAN,
		IPOIdentifier: req.IPO,
		Registrar:     models.RegistrarID(req.Registrar),
	}, false)
}

// CheckAllotmentQuery handles GET /allotment/check?pan=&ipo=&registrar=, which also accepts a
// PAN without its trailing check letter.
func (h *CheckHandler) CheckAllotmentQuery(c *fiber.Ctx) error {
	return h.check(c, models.AllotmentRequest{
		PANNumber:     c.Query("pan"),
		IPOIdentifier: c.Query("ipo"),
		Registrar:     models.RegistrarID(c.Query("registrar")),
	}, true)
}

func (h *CheckHandler) check(c *fiber.Ctx, req models.AllotmentRequest, relaxedPAN bool) error {
	requestID := uuid.New().String()
	logger := logrus.WithFields(logrus.Fields{
		"component":  "CheckHandler",
		"request_id": requestID,
		"pan":        shared.MaskPAN(req.PANNumber),
		"registrar":  req.Registrar,
	})

	results, err := h.Service.CheckAllotment(c.UserContext(), req, relaxedPAN)
	if err != nil {
		var serviceErr *shared.ServiceError
		isServiceErr := errors.As(err, &serviceErr)
		if shared.IsValidationError(err) {
			logger.WithField("code", serviceErr.Code).Debug("Rejected allotment request")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success":    false,
				"error":      serviceErr.Message,
				"code":       serviceErr.Code,
				"request_id": requestID,
			})
		}
		if isServiceErr {
			serviceErr.LogError()
		} else {
			logger.WithError(err).Error("Allotment check failed")
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success":    false,
			"error":      err.Error(),
			"request_id": requestID,
		})
	}

	c.Set("X-Request-ID", requestID)
	if req.Registrar != "" && len(results) == 1 {
		return c.JSON(fiber.Map{
			"success":    true,
			"data":       results[0],
			"request_id": requestID,
		})
	}

	logger.WithField("results", len(results)).Info("Checked allotment across registrars")
	return c.JSON(fiber.Map{
		"success":    true,
		"data":       results,
		"request_id": requestID,
	})
}
