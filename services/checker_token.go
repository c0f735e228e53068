package services

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

// TokenEndpoints are the page methods of a Link Intime style registrar
type TokenEndpoints struct {
	TokenPath   string
	DetailsPath string
	SearchPath  string
}

// DefaultTokenEndpoints matches both Link Intime and MUFG Intime
func DefaultTokenEndpoints() TokenEndpoints {
	return TokenEndpoints{
		TokenPath:   "IPO.aspx/generateToken",
		DetailsPath: "IPO.aspx/GetDetails",
		SearchPath:  "IPO.aspx/SearchOnPan",
	}
}

// TokenChecker fetches a short-lived token, resolves the company code and searches by PAN
type TokenChecker struct {
	profile   models.RegistrarProfile
	endpoints TokenEndpoints
	transport *shared.HTTPTransport
	resolver  IdentifierResolver
	utility   *UtilityService
}

// NewTokenChecker creates a token-family checker
func NewTokenChecker(profile models.RegistrarProfile, endpoints TokenEndpoints, transport *shared.HTTPTransport, resolver IdentifierResolver) *TokenChecker {
	if endpoints.SearchPath == "" {
		endpoints.SearchPath = profile.EndpointPath
	}
	return &TokenChecker{
		profile:   profile,
		endpoints: endpoints,
		transport: transport,
		resolver:  resolver,
		utility:   NewUtilityService(),
	}
}

// TokenListingSource reads the company list served by the GetDetails page method
func TokenListingSource(profile models.RegistrarProfile, endpoints TokenEndpoints, transport *shared.HTTPTransport) ListingSource {
	return NewMarkupListSource("get-details", transport, profile.EndpointURL(endpoints.DetailsPath), map[string]string{}, pageMethodHeaders(profile), MarkupListFields{
		RecordElement: "Table",
		LabelFields:   []string{"companyname", "CompanyName", "company_name"},
		ValueFields:   []string{"company_id", "CompanyID", "clientid"},
	})
}

func pageMethodHeaders(profile models.RegistrarProfile) map[string]string {
	return map[string]string{
		"X-Requested-With": "XMLHttpRequest",
		"Origin":           strings.TrimRight(profile.BaseURL, "/"),
		"Referer":          profile.EndpointURL("IPO.aspx"),
	}
}

func (c *TokenChecker) Registrar() models.RegistrarID {
	return c.profile.ID
}

func (c *TokenChecker) Check(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
	logger := checkerLogger(c.profile.ID, panNumber)

	token := c.fetchToken(ctx)
	if token == "" {
		logger.Info("Proceeding without registrar token")
	}

	clientID, ok := resolveIdentifier(ctx, c.resolver, c.profile.ID, ipoIdentifier)
	if !ok {
		logger.WithField("ipo", ipoIdentifier).Info("IPO not resolved, skipping query")
		return unresolvedResult(c.profile.ID, ipoIdentifier)
	}

	payload := map[string]string{
		"clientid": clientID,
		"PAN":      panNumber,
		"IFSC":     "",
		"CHKVAL":   "1",
		"token":    token,
	}
	response, err := c.transport.PostJSON(ctx, c.profile.EndpointURL(c.endpoints.SearchPath), payload, pageMethodHeaders(c.profile))
	if err != nil {
		logger.WithError(err).Warn("Registrar search failed")
		var raw interface{}
		if response != nil {
			raw = rawPayload(response.Body)
		}
		return errorResult(c.profile.ID, err, raw)
	}

	raw := rawPayload(response.Body)
	status, detail, err := c.interpret(response.Body)
	if err != nil {
		logger.WithError(err).Warn("Registrar response could not be interpreted")
		return errorResult(c.profile.ID, shared.WrapError(err, shared.ErrorCategoryProcessing, "INVALID_RESPONSE", string(c.profile.ID), "interpret", false), raw)
	}
	return newResult(c.profile.ID, status, detail, raw)
}

// fetchToken returns "" on any failure
func (c *TokenChecker) fetchToken(ctx context.Context) string {
	if c.endpoints.TokenPath == "" {
		return ""
	}

	response, err := c.transport.PostJSON(ctx, c.profile.EndpointURL(c.endpoints.TokenPath), map[string]string{}, pageMethodHeaders(c.profile))
	if err != nil {
		checkerLogger(c.profile.ID, "").WithError(err).Debug("Token request failed")
		return ""
	}

	var envelope struct {
		D string `json:"d"`
	}
	if err := json.Unmarshal(response.Body, &envelope); err != nil {
		return ""
	}
	return strings.TrimSpace(envelope.D)
}

func (c *TokenChecker) interpret(body []byte) (models.StatusKind, *models.AllotmentDetail, error) {
	markup, err := DecodeMarkupPayload(body)
	if err != nil {
		return "", nil, err
	}
	rows, err := ParseDataSetRows(markup, "Table")
	if err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return models.StatusNoRecordFound, nil, nil
	}

	row := rows[0]
	status := classifyAllottedCount(c.utility, FirstField(row, "ALLOT", "allotted"))

	detail := &models.AllotmentDetail{
		ApplicantName:     FirstField(row, "NAME1", "name"),
		ApplicationNumber: FirstField(row, "Appl_NO", "applno"),
		DPID:              FirstField(row, "DPCLITID", "dpclientid"),
		Status:            status.Label(),
	}
	if applied, ok := c.utility.ParseShareCount(FirstField(row, "SHARES", "Applied")); ok {
		detail.SharesApplied = intPtr(applied)
	}
	if shares, ok := c.utility.ParseShareCount(FirstField(row, "ALLOT", "allotted")); ok {
		detail.SharesAllotted = intPtr(shares)
	}
	if refund, ok := c.utility.ExtractNumeric(FirstField(row, "AMTADJ", "refund")); ok {
		detail.RefundAmount = floatPtr(refund)
	}
	return status, detail, nil
}
