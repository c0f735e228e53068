package services

import (
	"fmt"

	"github.com/fenilmodi00/allotment-gateway/models"
)

// FallbackSource says where a challenge fallback value comes from
type FallbackSource string

const (
	// FallbackHiddenField echoes a hidden input the page already carries
	FallbackHiddenField FallbackSource = "hidden_field"
	// FallbackLiteral submits a fixed value
	FallbackLiteral FallbackSource = "literal"
)

// ChallengeFallback is one entry of a registrar's ordered challenge fallback list
type ChallengeFallback struct {
	Source FallbackSource
	Field  string
	Value  string
}

// FormLayout describes a server-rendered allotment form
type FormLayout struct {
	FormPath   string
	SubmitPath string

	CompanyField   string
	CompanyOptions string
	PANField       string
	CaptchaField   string
	Extras         map[string]string

	// CSRFMetaName is read from <meta name=...> and sent in CSRFHeader
	CSRFMetaName string
	CSRFHeader   string

	ChallengeMarkers []string
	Fallbacks        []ChallengeFallback

	ResultTable     string
	NoRecordMarkers []string
}

var defaultChallengeMarkers = []string{
	"invalid captcha",
	"captcha does not match",
	"incorrect captcha",
	"wrong captcha",
	"captcha is required",
	"verify you are human",
	"are you a robot",
}

var defaultNoRecordMarkers = []string{
	"no record",
	"record not found",
	"no data found",
	"details not found",
	"not found",
}

// CompanyOptionSelector returns the selector for the company dropdown options
func (l FormLayout) CompanyOptionSelector() string {
	if l.CompanyOptions != "" {
		return l.CompanyOptions
	}
	return fmt.Sprintf(`select[name="%s"] option`, l.CompanyField)
}

// SubmitTarget returns the path the form posts to
func (l FormLayout) SubmitTarget() string {
	if l.SubmitPath != "" {
		return l.SubmitPath
	}
	return l.FormPath
}

// FallbackValues resolves the fallback list against the page's hidden fields, in order.
// Hidden-field entries with no value on the page are skipped.
func (l FormLayout) FallbackValues(hidden map[string]string) []string {
	var values []string
	for _, fallback := range l.Fallbacks {
		switch fallback.Source {
		case FallbackHiddenField:
			if value, ok := hidden[fallback.Field]; ok && value != "" {
				values = append(values, value)
			}
		case FallbackLiteral:
			values = append(values, fallback.Value)
		}
	}
	return values
}

// DefaultFormLayouts returns the layouts of the scraped-form registrars
func DefaultFormLayouts() map[models.RegistrarID]FormLayout {
	return map[models.RegistrarID]FormLayout{
		models.RegistrarSkyline: {
			FormPath:         "ipo.php",
			CompanyField:     "company",
			PANField:         "pan",
			CaptchaField:     "captcha",
			Extras:           map[string]string{"searchby": "pan", "submit": "Search"},
			ChallengeMarkers: defaultChallengeMarkers,
			Fallbacks: []ChallengeFallback{
				{Source: FallbackHiddenField, Field: "captcha_code"},
				{Source: FallbackHiddenField, Field: "captcha_text"},
				{Source: FallbackLiteral, Value: ""},
			},
			ResultTable:     "table.table, table#result, table",
			NoRecordMarkers: defaultNoRecordMarkers,
		},
		models.RegistrarCameo: {
			FormPath:     "",
			CompanyField: "drpCompany",
			PANField:     "txtpan",
			CaptchaField: "txt_captcha",
			Extras: map[string]string{
				"__EVENTTARGET":   "",
				"__EVENTARGUMENT": "",
				"ddlUserTypes":    "PAN NO",
				"btngenerate":     "Submit",
			},
			ChallengeMarkers: defaultChallengeMarkers,
			Fallbacks: []ChallengeFallback{
				{Source: FallbackHiddenField, Field: "hdnCaptcha"},
				{Source: FallbackLiteral, Value: ""},
			},
			ResultTable:     "table#gvData, table",
			NoRecordMarkers: defaultNoRecordMarkers,
		},
		models.RegistrarMas: {
			FormPath:     "opt.aspx",
			CompanyField: "ddlCompany",
			PANField:     "txtPan",
			Extras: map[string]string{
				"__EVENTTARGET":   "",
				"__EVENTARGUMENT": "",
				"rbSearch":        "PAN",
				"btnSubmit":       "Submit",
			},
			ChallengeMarkers: defaultChallengeMarkers,
			ResultTable:      "table#GridView1, table",
			NoRecordMarkers:  defaultNoRecordMarkers,
		},
		models.RegistrarBeetal: {
			FormPath:     "ipo_status.aspx",
			CompanyField: "ddlCompany",
			PANField:     "txtPAN",
			Extras: map[string]string{
				"__EVENTTARGET":   "",
				"__EVENTARGUMENT": "",
				"btnSearch":       "Search",
			},
			ChallengeMarkers: defaultChallengeMarkers,
			ResultTable:      "table#gvResult, table",
			NoRecordMarkers:  defaultNoRecordMarkers,
		},
		models.RegistrarPurva: {
			FormPath:         "investor-service/ipo-query",
			CompanyField:     "company_id",
			PANField:         "panNumber",
			Extras:           map[string]string{"search_by": "pan"},
			CSRFMetaName:     "csrf-token",
			CSRFHeader:       "X-CSRFToken",
			ChallengeMarkers: defaultChallengeMarkers,
			ResultTable:      "table.table, table",
			NoRecordMarkers:  defaultNoRecordMarkers,
		},
	}
}
