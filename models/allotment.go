package models

import (
	"strings"
	"time"
)

// RegistrarID identifies one of the supported registrar sites
type RegistrarID string

const (
	RegistrarBigshare   RegistrarID = "bigshare"
	RegistrarKfintech   RegistrarID = "kfintech"
	RegistrarLinkIntime RegistrarID = "linkintime"
	RegistrarSkyline    RegistrarID = "skyline"
	RegistrarCameo      RegistrarID = "cameo"
	RegistrarMas        RegistrarID = "mas"
	RegistrarMaashitla  RegistrarID = "maashitla"
	RegistrarBeetal     RegistrarID = "beetal"
	RegistrarPurva      RegistrarID = "purva"
	RegistrarMufg       RegistrarID = "mufg"
)

// AllRegistrarIDs returns every registrar in configuration order
func AllRegistrarIDs() []RegistrarID {
	return []RegistrarID{
		RegistrarBigshare,
		RegistrarKfintech,
		RegistrarLinkIntime,
		RegistrarSkyline,
		RegistrarCameo,
		RegistrarMas,
		RegistrarMaashitla,
		RegistrarBeetal,
		RegistrarPurva,
		RegistrarMufg,
	}
}

// ParseRegistrarID maps user input onto the closed registrar set
func ParseRegistrarID(value string) (RegistrarID, bool) {
	candidate := RegistrarID(strings.ToLower(strings.TrimSpace(value)))
	for _, id := range AllRegistrarIDs() {
		if id == candidate {
			return id, true
		}
	}
	return "", false
}

// ResponseKind describes the payload a registrar answers with
type ResponseKind string

const (
	ResponseKindJSON ResponseKind = "json"
	ResponseKindHTML ResponseKind = "html"
)

// CheckerFamily groups registrars that share a request/response flow
type CheckerFamily string

const (
	FamilyDirectJSON CheckerFamily = "json"
	FamilyToken      CheckerFamily = "token"
	FamilyForm       CheckerFamily = "form"
	FamilyGeneric    CheckerFamily = "generic"
)

// RegistrarProfile is the static, read-only description of a registrar site
type RegistrarProfile struct {
	ID                 RegistrarID   `json:"id"`
	DisplayName        string        `json:"display_name"`
	BaseURL            string        `json:"base_url"`
	Method             string        `json:"method"`
	EndpointPath       string        `json:"endpoint_path"`
	ResponseKind       ResponseKind  `json:"response_kind"`
	RequiresResolution bool          `json:"requires_resolution"`
	Family             CheckerFamily `json:"family"`
}

// EndpointURL joins the base URL and a path
func (p RegistrarProfile) EndpointURL(path string) string {
	if path == "" {
		return p.BaseURL
	}
	return strings.TrimRight(p.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// AllotmentRequest is a single allotment lookup
type AllotmentRequest struct {
	PANNumber     string      `json:"pan"`
	IPOIdentifier string      `json:"ipo"`
	Registrar     RegistrarID `json:"registrar,omitempty"`
}

// IsNumericIdentifier reports whether an IPO identifier is already a registrar code
func IsNumericIdentifier(identifier string) bool {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false
	}
	for _, r := range identifier {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// StatusKind is the normalized allotment outcome
type StatusKind string

const (
	StatusAllotted        StatusKind = "Allotted"
	StatusNotAllotted     StatusKind = "NotAllotted"
	StatusNoRecordFound   StatusKind = "NoRecordFound"
	StatusPending         StatusKind = "Pending"
	StatusCaptchaRequired StatusKind = "CaptchaRequired"
	StatusError           StatusKind = "Error"
	StatusUnknown         StatusKind = "Unknown"

	// StatusParseNeeded is only produced by the generic checker: the registrar answered but
	// nothing interprets its payload yet.
	StatusParseNeeded StatusKind = "ParseNeeded"
)

// Label is the lowercase form used inside AllotmentDetail
func (s StatusKind) Label() string {
	switch s {
	case StatusAllotted:
		return "allotted"
	case StatusNotAllotted:
		return "not_allotted"
	case StatusPending:
		return "pending"
	default:
		return strings.ToLower(string(s))
	}
}

// AllotmentDetail holds optional enrichment; only fields the registrar returned are set
type AllotmentDetail struct {
	ApplicantName     string   `json:"applicantName,omitempty"`
	ApplicationNumber string   `json:"applicationNumber,omitempty"`
	DPID              string   `json:"dpId,omitempty"`
	SharesApplied     *int     `json:"sharesApplied,omitempty"`
	SharesAllotted    *int     `json:"sharesAllotted,omitempty"`
	RefundAmount      *float64 `json:"refundAmount,omitempty"`
	Status            string   `json:"status,omitempty"`
}

// AllotmentResult is produced fresh for every (registrar, request) pair
type AllotmentResult struct {
	Success     bool             `json:"success"`
	Registrar   RegistrarID      `json:"registrar"`
	Status      StatusKind       `json:"status"`
	Details     *AllotmentDetail `json:"details,omitempty"`
	RawResponse interface{}      `json:"rawResponse"`
	Error       string           `json:"error,omitempty"`
	CheckedAt   time.Time        `json:"checkedAt"`
	DurationMs  int64            `json:"durationMs"`
}
