package services

import (
	"regexp"
	"strings"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

var (
	strictPANPattern  = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	relaxedPANPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]?$`)
)

// IsValidPAN reports whether pan matches the full ten-character format
func IsValidPAN(pan string) bool {
	return strictPANPattern.MatchString(pan)
}

// IsValidRelaxedPAN also accepts a PAN missing its trailing check letter
func IsValidRelaxedPAN(pan string) bool {
	return relaxedPANPattern.MatchString(pan)
}

// ValidateAllotmentRequest checks a request before any outbound call is made.
// Input is not upper-cased; lowercase PANs are rejected.
func ValidateAllotmentRequest(req models.AllotmentRequest, relaxedPAN bool) (models.AllotmentRequest, error) {
	req.PANNumber = strings.TrimSpace(req.PANNumber)
	req.IPOIdentifier = strings.TrimSpace(req.IPOIdentifier)

	if req.PANNumber == "" {
		return req, shared.NewValidationError("PAN_REQUIRED", "pan is required", "ValidateAllotmentRequest")
	}

	valid := IsValidPAN(req.PANNumber)
	if relaxedPAN {
		valid = IsValidRelaxedPAN(req.PANNumber)
	}
	if !valid {
		return req, shared.NewValidationError("INVALID_PAN", "invalid PAN format", "ValidateAllotmentRequest")
	}

	if req.IPOIdentifier == "" {
		return req, shared.NewValidationError("IPO_REQUIRED", "ipo is required", "ValidateAllotmentRequest")
	}

	if req.Registrar != "" {
		id, ok := models.ParseRegistrarID(string(req.Registrar))
		if !ok {
			return req, shared.NewValidationError("UNKNOWN_REGISTRAR", "unsupported registrar: "+string(req.Registrar), "ValidateAllotmentRequest")
		}
		req.Registrar = id
	}

	return req, nil
}
