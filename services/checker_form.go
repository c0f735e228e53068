package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const maxRawHTML = 4096

// FormChecker drives a server-rendered allotment form: GET the page, pick the company,
// POST in the same cookie session and read the result table.
type FormChecker struct {
	profile   models.RegistrarProfile
	layout    FormLayout
	transport *shared.HTTPTransport
	browser   shared.PageFetcher
	matcher   *NameMatcher
	utility   *UtilityService
}

// NewFormChecker creates a scraped-form checker. browser may be nil.
func NewFormChecker(profile models.RegistrarProfile, layout FormLayout, transport *shared.HTTPTransport, browser shared.PageFetcher) *FormChecker {
	utility := NewUtilityService()
	return &FormChecker{
		profile:   profile,
		layout:    layout,
		transport: transport,
		browser:   browser,
		matcher:   NewNameMatcher(utility),
		utility:   utility,
	}
}

func (c *FormChecker) Registrar() models.RegistrarID {
	return c.profile.ID
}

// formSession is one colly collector, so cookies persist between the GET and the POSTs
type formSession struct {
	collector *colly.Collector
	lastBody  []byte
}

func (c *FormChecker) newSession(referer string) *formSession {
	collector := colly.NewCollector(colly.AllowURLRevisit())
	collector.WithTransport(c.transport.RoundTripper())
	collector.SetRequestTimeout(c.transport.Timeout())

	session := &formSession{collector: collector}

	collector.OnRequest(func(r *colly.Request) {
		c.transport.Limiter().EnforceRateLimit(r.URL.Host)
		shared.SetBrowserLikeHeaders(*r.Headers, shared.AcceptHTML)
		r.Headers.Set("Referer", referer)
	})
	collector.OnResponse(func(r *colly.Response) {
		session.lastBody = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			session.lastBody = r.Body
		}
	})
	return session
}

func (s *formSession) get(pageURL string) ([]byte, error) {
	s.lastBody = nil
	if err := s.collector.Visit(pageURL); err != nil {
		return s.lastBody, err
	}
	return s.lastBody, nil
}

func (s *formSession) post(submitURL string, form map[string]string) ([]byte, error) {
	s.lastBody = nil
	if err := s.collector.Post(submitURL, form); err != nil {
		return s.lastBody, err
	}
	return s.lastBody, nil
}

func (c *FormChecker) Check(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
	logger := checkerLogger(c.profile.ID, panNumber)
	formURL := c.profile.EndpointURL(c.layout.FormPath)
	submitURL := c.profile.EndpointURL(c.layout.SubmitTarget())

	session := c.newSession(formURL)

	page, err := c.loadFormPage(ctx, session, formURL, logger)
	if err != nil {
		return errorResult(c.profile.ID, shared.ClassifyTransportError(err, string(c.profile.ID), "loadFormPage"), truncateRaw(page))
	}

	doc, err := ParseHTMLDocument(page)
	if err != nil {
		return errorResult(c.profile.ID, err, truncateRaw(page))
	}

	options := ExtractSelectOptions(doc, c.layout.CompanyOptionSelector())
	if len(options) == 0 && ContainsAny(string(page), c.layout.ChallengeMarkers) {
		logger.Info("Form page is behind a challenge")
		return captchaResult(c.profile.ID, truncateRaw(page))
	}

	companyValue, ok := c.selectCompany(options, ipoIdentifier)
	if !ok {
		logger.WithField("ipo", ipoIdentifier).Info("IPO not in company dropdown, skipping query")
		return unresolvedResult(c.profile.ID, ipoIdentifier)
	}

	hidden := ExtractHiddenFields(doc)
	if c.layout.CSRFMetaName != "" && c.layout.CSRFHeader != "" {
		if token := ExtractMetaContent(doc, c.layout.CSRFMetaName); token != "" {
			session.collector.OnRequest(func(r *colly.Request) {
				r.Headers.Set(c.layout.CSRFHeader, token)
			})
		}
	}

	form := c.buildForm(hidden, companyValue, panNumber, "")
	body, err := session.post(submitURL, form)
	if err != nil {
		logger.WithError(err).Warn("Form submission failed")
		return errorResult(c.profile.ID, shared.ClassifyTransportError(err, string(c.profile.ID), "submit"), truncateRaw(body))
	}

	status, detail, challenged := c.classifyResponse(body)
	if !challenged {
		return newResult(c.profile.ID, status, detail, truncateRaw(body))
	}

	for attempt, value := range c.layout.FallbackValues(hidden) {
		logger.WithField("attempt", attempt+1).Debug("Challenge returned, trying fallback value")

		// A challenge response may carry fresh view state
		if refreshed, parseErr := ParseHTMLDocument(body); parseErr == nil {
			for name, fieldValue := range ExtractHiddenFields(refreshed) {
				hidden[name] = fieldValue
			}
		}

		body, err = session.post(submitURL, c.buildForm(hidden, companyValue, panNumber, value))
		if err != nil {
			return errorResult(c.profile.ID, shared.ClassifyTransportError(err, string(c.profile.ID), "submit"), truncateRaw(body))
		}
		status, detail, challenged = c.classifyResponse(body)
		if !challenged {
			return newResult(c.profile.ID, status, detail, truncateRaw(body))
		}
	}

	logger.Info("Challenge fallbacks exhausted")
	return captchaResult(c.profile.ID, truncateRaw(body))
}

// loadFormPage fetches the form, falling back to a headless browser when the GET is rejected
func (c *FormChecker) loadFormPage(ctx context.Context, session *formSession, formURL string, logger *logrus.Entry) ([]byte, error) {
	page, err := session.get(formURL)
	if err == nil {
		return page, nil
	}
	if c.browser == nil {
		return page, err
	}

	logger.WithError(err).Info("Form page rejected, retrying in headless browser")
	rendered, browserErr := c.browser.FetchPage(ctx, formURL)
	if browserErr != nil {
		return page, err
	}
	if cookieErr := session.collector.SetCookies(formURL, rendered.Cookies); cookieErr != nil {
		logger.WithError(cookieErr).Debug("Could not carry browser cookies into session")
	}
	return []byte(rendered.HTML), nil
}

func (c *FormChecker) selectCompany(options []ListingCandidate, ipoIdentifier string) (string, bool) {
	if models.IsNumericIdentifier(ipoIdentifier) {
		return strings.TrimSpace(ipoIdentifier), true
	}
	candidate, ok := c.matcher.MatchOption(ipoIdentifier, options)
	if !ok {
		return "", false
	}
	return candidate.Value, true
}

func (c *FormChecker) buildForm(hidden map[string]string, companyValue, panNumber, captcha string) map[string]string {
	form := make(map[string]string, len(hidden)+len(c.layout.Extras)+3)
	for name, value := range hidden {
		form[name] = value
	}
	for name, value := range c.layout.Extras {
		form[name] = value
	}
	form[c.layout.CompanyField] = companyValue
	form[c.layout.PANField] = panNumber
	if c.layout.CaptchaField != "" {
		form[c.layout.CaptchaField] = captcha
	}
	return form
}

// classifyResponse reads a submitted form's response. The boolean reports a challenge.
func (c *FormChecker) classifyResponse(body []byte) (models.StatusKind, *models.AllotmentDetail, bool) {
	doc, err := ParseHTMLDocument(body)
	if err == nil {
		if table, ok := ExtractResultTable(doc, c.layout.ResultTable); ok {
			status, detail := ClassifyResultTable(table, c.utility)
			return status, detail, false
		}
	}

	text := string(body)
	if ContainsAny(text, c.layout.ChallengeMarkers) {
		return models.StatusCaptchaRequired, nil, true
	}
	if ContainsAny(text, c.layout.NoRecordMarkers) {
		return models.StatusNoRecordFound, nil, false
	}
	return models.StatusUnknown, nil, false
}

func truncateRaw(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxRawHTML {
		cut := maxRawHTML
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}
