package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

const maashitlaListingPath = "allotment-status/public-issues"

type maashitlaAdapter struct {
	utility *UtilityService
}

type maashitlaRecord struct {
	Name              string      `json:"name"`
	ApplicationNumber string      `json:"application_Number"`
	DPID              string      `json:"dp_ID"`
	ShareApplied      interface{} `json:"share_Applied"`
	ShareAlloted      interface{} `json:"share_Alloted"`
}

// NewMaashitlaChecker creates the Maashitla checker
func NewMaashitlaChecker(profile models.RegistrarProfile, transport *shared.HTTPTransport, resolver IdentifierResolver) *DirectJSONChecker {
	return newDirectJSONChecker(profile, transport, resolver, &maashitlaAdapter{utility: NewUtilityService()})
}

// MaashitlaListingSource reads the company dropdown of the public issues page
func MaashitlaListingSource(profile models.RegistrarProfile, transport *shared.HTTPTransport) ListingSource {
	return NewSelectOptionsSource("public-issues", transport, profile.EndpointURL(maashitlaListingPath), "#txtCompany option", nil)
}

func (a *maashitlaAdapter) BuildRequest(profile models.RegistrarProfile, panNumber, identifier string) (shared.OutboundRequest, error) {
	query := url.Values{}
	query.Set("company", identifier)
	query.Set("search", panNumber)

	return shared.OutboundRequest{
		Method: http.MethodGet,
		URL:    profile.EndpointURL(profile.EndpointPath) + "?" + query.Encode(),
		Headers: map[string]string{
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          profile.EndpointURL(maashitlaListingPath),
		},
		Accept: shared.AcceptJSON,
	}, nil
}

func (a *maashitlaAdapter) Interpret(body []byte) (models.StatusKind, *models.AllotmentDetail, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return models.StatusNoRecordFound, nil, nil
	}

	var record maashitlaRecord
	if trimmed[0] == '[' {
		var records []maashitlaRecord
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return "", nil, fmt.Errorf("failed to decode maashitla response: %w", err)
		}
		if len(records) == 0 {
			return models.StatusNoRecordFound, nil, nil
		}
		record = records[0]
	} else if err := json.Unmarshal(trimmed, &record); err != nil {
		return "", nil, fmt.Errorf("failed to decode maashitla response: %w", err)
	}

	if record.Name == "" && record.ApplicationNumber == "" {
		return models.StatusNoRecordFound, nil, nil
	}

	allotted := a.utility.StringValue(record.ShareAlloted)
	status := classifyAllottedCount(a.utility, allotted)

	detail := &models.AllotmentDetail{
		ApplicantName:     record.Name,
		ApplicationNumber: record.ApplicationNumber,
		DPID:              record.DPID,
		Status:            status.Label(),
	}
	if applied, ok := a.utility.NumericValue(record.ShareApplied); ok {
		detail.SharesApplied = intPtr(int(applied))
	}
	if shares, ok := a.utility.NumericValue(record.ShareAlloted); ok {
		detail.SharesAllotted = intPtr(int(shares))
	}
	return status, detail, nil
}
