package services

import (
	"context"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

// jsonAdapter holds the registrar-specific half of a direct JSON lookup
type jsonAdapter interface {
	BuildRequest(profile models.RegistrarProfile, panNumber, identifier string) (shared.OutboundRequest, error)
	Interpret(body []byte) (models.StatusKind, *models.AllotmentDetail, error)
}

// DirectJSONChecker handles registrars that answer a single JSON request
type DirectJSONChecker struct {
	profile   models.RegistrarProfile
	transport *shared.HTTPTransport
	resolver  IdentifierResolver
	adapter   jsonAdapter
}

func newDirectJSONChecker(profile models.RegistrarProfile, transport *shared.HTTPTransport, resolver IdentifierResolver, adapter jsonAdapter) *DirectJSONChecker {
	return &DirectJSONChecker{
		profile:   profile,
		transport: transport,
		resolver:  resolver,
		adapter:   adapter,
	}
}

func (c *DirectJSONChecker) Registrar() models.RegistrarID {
	return c.profile.ID
}

func (c *DirectJSONChecker) Check(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
	logger := checkerLogger(c.profile.ID, panNumber)

	identifier := ipoIdentifier
	if c.profile.RequiresResolution {
		resolved, ok := resolveIdentifier(ctx, c.resolver, c.profile.ID, ipoIdentifier)
		if !ok {
			logger.WithField("ipo", ipoIdentifier).Info("IPO not resolved, skipping query")
			return unresolvedResult(c.profile.ID, ipoIdentifier)
		}
		identifier = resolved
	}

	request, err := c.adapter.BuildRequest(c.profile, panNumber, identifier)
	if err != nil {
		return errorResult(c.profile.ID, err, nil)
	}

	response, err := c.transport.Do(ctx, request)
	if err != nil {
		logger.WithError(err).Warn("Registrar request failed")
		var raw interface{}
		if response != nil {
			raw = rawPayload(response.Body)
		}
		return errorResult(c.profile.ID, err, raw)
	}

	raw := rawPayload(response.Body)
	status, detail, err := c.adapter.Interpret(response.Body)
	if err != nil {
		logger.WithError(err).Warn("Registrar response could not be interpreted")
		return errorResult(c.profile.ID, shared.WrapError(err, shared.ErrorCategoryProcessing, "INVALID_RESPONSE", string(c.profile.ID), "Interpret", false), raw)
	}

	logger.WithField("status", status).Debug("Registrar check completed")
	return newResult(c.profile.ID, status, detail, raw)
}

// classifyAllottedCount applies the numeric allotted rule shared by JSON and token registrars
func classifyAllottedCount(utility *UtilityService, allotted string) models.StatusKind {
	if utility.IsNotAvailable(allotted) {
		return models.StatusNotAllotted
	}
	value, ok := utility.ExtractNumeric(allotted)
	switch {
	case !ok:
		return models.StatusPending
	case value > 0:
		return models.StatusAllotted
	default:
		return models.StatusNotAllotted
	}
}
