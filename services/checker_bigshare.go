package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

const bigshareListingPath = "IPO_Status.html"

type bigshareAdapter struct {
	utility *UtilityService
}

type bigshareRecord struct {
	ApplicationNo string      `json:"APPLICATION_NO"`
	Name          string      `json:"NAME"`
	DPID          string      `json:"DPID"`
	Applied       interface{} `json:"APPLIED"`
	Alloted       interface{} `json:"ALLOTED"`
	Refund        interface{} `json:"REFUND_AMOUNT"`
}

// NewBigshareChecker creates the Bigshare checker; IPO names resolve through its company dropdown
func NewBigshareChecker(profile models.RegistrarProfile, transport *shared.HTTPTransport, resolver IdentifierResolver) *DirectJSONChecker {
	return newDirectJSONChecker(profile, transport, resolver, &bigshareAdapter{utility: NewUtilityService()})
}

// BigshareListingSource reads the company dropdown of the status page
func BigshareListingSource(profile models.RegistrarProfile, transport *shared.HTTPTransport) ListingSource {
	return NewSelectOptionsSource("company-dropdown", transport, profile.EndpointURL(bigshareListingPath), "#ddlCompany option", nil)
}

func (a *bigshareAdapter) BuildRequest(profile models.RegistrarProfile, panNumber, identifier string) (shared.OutboundRequest, error) {
	body, err := jsonBody(map[string]string{
		"Applicationno": "",
		"Company":       identifier,
		"SelectionType": "PN",
		"PanNo":         panNumber,
		"txtcsdl":       "",
		"txtDPID":       "",
		"txtClId":       "",
		"ddlType":       "0",
		"lang":          "en",
	})
	if err != nil {
		return shared.OutboundRequest{}, err
	}

	return shared.OutboundRequest{
		Method: http.MethodPost,
		URL:    profile.EndpointURL(profile.EndpointPath),
		Headers: map[string]string{
			"Content-Type":     "application/json; charset=utf-8",
			"X-Requested-With": "XMLHttpRequest",
			"Referer":          profile.EndpointURL(bigshareListingPath),
		},
		Body:   body,
		Accept: shared.AcceptJSON,
	}, nil
}

func (a *bigshareAdapter) Interpret(body []byte) (models.StatusKind, *models.AllotmentDetail, error) {
	var envelope struct {
		D *bigshareRecord `json:"d"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", nil, fmt.Errorf("failed to decode bigshare response: %w", err)
	}

	record := envelope.D
	if record == nil || (strings.TrimSpace(record.ApplicationNo) == "" && strings.TrimSpace(record.Name) == "") {
		return models.StatusNoRecordFound, nil, nil
	}

	allotted := a.utility.StringValue(record.Alloted)
	status := classifyBigshareAllotted(a.utility, allotted)

	detail := &models.AllotmentDetail{
		ApplicantName:     strings.TrimSpace(record.Name),
		ApplicationNumber: strings.TrimSpace(record.ApplicationNo),
		DPID:              strings.TrimSpace(record.DPID),
		Status:            status.Label(),
	}
	if applied, ok := a.utility.ParseShareCount(a.utility.StringValue(record.Applied)); ok {
		detail.SharesApplied = intPtr(applied)
	}
	if shares, ok := a.utility.ParseShareCount(allotted); ok {
		detail.SharesAllotted = intPtr(shares)
	}
	if refund, ok := a.utility.NumericValue(record.Refund); ok {
		detail.RefundAmount = floatPtr(refund)
	}
	return status, detail, nil
}

// classifyBigshareAllotted maps the free-text ALLOTED field. Plain numbers use the numeric rule.
func classifyBigshareAllotted(utility *UtilityService, allotted string) models.StatusKind {
	text := strings.ToLower(strings.TrimSpace(allotted))
	if text == "" {
		return models.StatusPending
	}
	if models.IsNumericIdentifier(text) {
		return classifyAllottedCount(utility, text)
	}

	switch {
	case strings.Contains(text, "non-allot"), strings.Contains(text, "not allot"), strings.Contains(text, "non allot"):
		return models.StatusNotAllotted
	case strings.Contains(text, "allot") && !strings.Contains(text, "non") && !strings.Contains(text, "not"):
		return models.StatusAllotted
	default:
		return models.StatusPending
	}
}
