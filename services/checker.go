package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/sirupsen/logrus"
)

// Checker queries one registrar for one PAN. Transport failures are reported inside the
// result; Check never returns an error.
type Checker interface {
	Registrar() models.RegistrarID
	Check(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult
}

func newResult(registrar models.RegistrarID, status models.StatusKind, detail *models.AllotmentDetail, raw interface{}) models.AllotmentResult {
	return models.AllotmentResult{
		Success:     true,
		Registrar:   registrar,
		Status:      status,
		Details:     detail,
		RawResponse: raw,
		CheckedAt:   time.Now(),
	}
}

func errorResult(registrar models.RegistrarID, err error, raw interface{}) models.AllotmentResult {
	return models.AllotmentResult{
		Success:     false,
		Registrar:   registrar,
		Status:      models.StatusError,
		RawResponse: raw,
		Error:       err.Error(),
		CheckedAt:   time.Now(),
	}
}

func captchaResult(registrar models.RegistrarID, raw interface{}) models.AllotmentResult {
	return models.AllotmentResult{
		Success:     false,
		Registrar:   registrar,
		Status:      models.StatusCaptchaRequired,
		RawResponse: raw,
		Error:       shared.ErrChallengeRequired.Error(),
		CheckedAt:   time.Now(),
	}
}

// unresolvedResult reports a name the registrar does not list; nothing was queried
func unresolvedResult(registrar models.RegistrarID, ipoIdentifier string) models.AllotmentResult {
	return newResult(registrar, models.StatusNoRecordFound, nil, map[string]string{
		"reason": "ipo not listed by registrar",
		"ipo":    ipoIdentifier,
	})
}

// rawPayload keeps decoded JSON when possible and the text body otherwise
func rawPayload(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err == nil {
		return decoded
	}
	return string(body)
}

func jsonBody(payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return body, nil
}

func checkerLogger(registrar models.RegistrarID, panNumber string) *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"component": "AllotmentChecker",
		"registrar": registrar,
		"pan":       shared.MaskPAN(panNumber),
	})
}
