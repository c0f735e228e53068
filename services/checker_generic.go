package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

// GenericChecker issues the profile's configured request and hands back the raw payload
// with StatusParseNeeded. Used for registrars whose live endpoint has no bespoke parser.
type GenericChecker struct {
	profile   models.RegistrarProfile
	transport *shared.HTTPTransport
}

// NewGenericChecker creates a passthrough checker
func NewGenericChecker(profile models.RegistrarProfile, transport *shared.HTTPTransport) *GenericChecker {
	return &GenericChecker{profile: profile, transport: transport}
}

func (c *GenericChecker) Registrar() models.RegistrarID {
	return c.profile.ID
}

func (c *GenericChecker) Check(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
	endpoint := c.profile.EndpointURL(c.profile.EndpointPath)
	accept := shared.AcceptHTML
	if c.profile.ResponseKind == models.ResponseKindJSON {
		accept = shared.AcceptJSON
	}

	var response *shared.OutboundResponse
	var err error
	query := url.Values{}
	query.Set("pan", panNumber)
	query.Set("ipo", ipoIdentifier)

	switch {
	case c.profile.Method == http.MethodPost && c.profile.ResponseKind == models.ResponseKindJSON:
		response, err = c.transport.PostJSON(ctx, endpoint, map[string]string{"pan": panNumber, "ipo": ipoIdentifier}, map[string]string{"Accept": accept})
	case c.profile.Method == http.MethodPost:
		// server-rendered pages take url-encoded forms
		response, err = c.transport.PostForm(ctx, endpoint, query, map[string]string{"Accept": accept})
	default:
		response, err = c.transport.Do(ctx, shared.OutboundRequest{
			Method: http.MethodGet,
			URL:    endpoint + "?" + query.Encode(),
			Accept: accept,
		})
	}
	if err != nil {
		checkerLogger(c.profile.ID, panNumber).WithError(err).Warn("Generic registrar request failed")
		return errorResult(c.profile.ID, err, nil)
	}

	var raw interface{}
	if c.profile.ResponseKind == models.ResponseKindJSON {
		raw = rawPayload(response.Body)
	} else {
		raw = truncateRaw(response.Body)
	}
	return newResult(c.profile.ID, models.StatusParseNeeded, nil, raw)
}
