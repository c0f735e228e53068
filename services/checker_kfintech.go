package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

type kfintechAdapter struct {
	utility *UtilityService
}

// NewKfintechChecker creates the KFintech checker. KFintech is keyed by its own client id, which
// is passed through unchanged.
func NewKfintechChecker(profile models.RegistrarProfile, transport *shared.HTTPTransport) *DirectJSONChecker {
	profile.RequiresResolution = false
	return newDirectJSONChecker(profile, transport, nil, &kfintechAdapter{utility: NewUtilityService()})
}

func (a *kfintechAdapter) BuildRequest(profile models.RegistrarProfile, panNumber, identifier string) (shared.OutboundRequest, error) {
	query := url.Values{}
	query.Set("clientId", identifier)
	query.Set("pan", panNumber)

	return shared.OutboundRequest{
		Method: http.MethodGet,
		URL:    profile.EndpointURL(profile.EndpointPath) + "?" + query.Encode(),
		Headers: map[string]string{
			"client_id": identifier,
			"reqparam":  panNumber,
		},
		Accept: shared.AcceptJSON,
	}, nil
}

func (a *kfintechAdapter) Interpret(body []byte) (models.StatusKind, *models.AllotmentDetail, error) {
	var envelope struct {
		Data []map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", nil, fmt.Errorf("failed to decode kfintech response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return models.StatusNoRecordFound, nil, nil
	}

	record := envelope.Data[0]
	field := func(names ...string) interface{} {
		for _, name := range names {
			if value, ok := record[name]; ok && value != nil {
				return value
			}
		}
		return nil
	}

	allotted := a.utility.StringValue(field("sharesAllotted", "allotted", "Allotted"))
	status := classifyAllottedCount(a.utility, allotted)

	detail := &models.AllotmentDetail{
		ApplicantName:     a.utility.StringValue(field("name", "applicantName", "Name")),
		ApplicationNumber: a.utility.StringValue(field("applicationNo", "applNo", "ApplicationNo")),
		DPID:              a.utility.StringValue(field("dpClientId", "dpId", "DPID")),
		Status:            status.Label(),
	}
	if applied, ok := a.utility.NumericValue(field("sharesApplied", "applied", "Applied")); ok {
		detail.SharesApplied = intPtr(int(applied))
	}
	if shares, ok := a.utility.NumericValue(allotted); ok {
		detail.SharesAllotted = intPtr(int(shares))
	}
	if refund, ok := a.utility.NumericValue(field("refundAmount", "refund", "Refund")); ok {
		detail.RefundAmount = floatPtr(refund)
	}
	return status, detail, nil
}
