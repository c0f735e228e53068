package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ListingSource fetches one registrar's candidate company list
type ListingSource interface {
	Name() string
	FetchCandidates(ctx context.Context) ([]ListingCandidate, error)
}

// SelectOptionsSource reads the <option> elements of a public form page
type SelectOptionsSource struct {
	name           string
	transport      *shared.HTTPTransport
	pageURL        string
	optionSelector string
	headers        map[string]string
}

// NewSelectOptionsSource creates a dropdown-backed listing source
func NewSelectOptionsSource(name string, transport *shared.HTTPTransport, pageURL, optionSelector string, headers map[string]string) *SelectOptionsSource {
	return &SelectOptionsSource{
		name:           name,
		transport:      transport,
		pageURL:        pageURL,
		optionSelector: optionSelector,
		headers:        headers,
	}
}

func (s *SelectOptionsSource) Name() string {
	return s.name
}

func (s *SelectOptionsSource) FetchCandidates(ctx context.Context) ([]ListingCandidate, error) {
	response, err := s.transport.Do(ctx, shared.OutboundRequest{
		Method:  http.MethodGet,
		URL:     s.pageURL,
		Headers: s.headers,
		Accept:  shared.AcceptHTML,
		Retry:   true,
	})
	if err != nil {
		return nil, err
	}

	doc, err := ParseHTMLDocument(response.Body)
	if err != nil {
		return nil, err
	}
	return ExtractSelectOptions(doc, s.optionSelector), nil
}

// MarkupListSource posts to an ASP.NET page method whose "d" field is an entity-encoded
// NewDataSet document listing the companies
type MarkupListSource struct {
	name          string
	transport     *shared.HTTPTransport
	endpointURL   string
	payload       interface{}
	headers       map[string]string
	recordElement string
	labelFields   []string
	valueFields   []string
}

// MarkupListFields names the elements that hold the company label and code
type MarkupListFields struct {
	RecordElement string
	LabelFields   []string
	ValueFields   []string
}

// NewMarkupListSource creates an encoded-markup listing source
func NewMarkupListSource(name string, transport *shared.HTTPTransport, endpointURL string, payload interface{}, headers map[string]string, fields MarkupListFields) *MarkupListSource {
	if fields.RecordElement == "" {
		fields.RecordElement = "Table"
	}
	if payload == nil {
		payload = map[string]string{}
	}
	return &MarkupListSource{
		name:          name,
		transport:     transport,
		endpointURL:   endpointURL,
		payload:       payload,
		headers:       headers,
		recordElement: fields.RecordElement,
		labelFields:   fields.LabelFields,
		valueFields:   fields.ValueFields,
	}
}

func (s *MarkupListSource) Name() string {
	return s.name
}

func (s *MarkupListSource) FetchCandidates(ctx context.Context) ([]ListingCandidate, error) {
	// Page methods only answer POST, which is idempotent here
	body, err := jsonBody(s.payload)
	if err != nil {
		return nil, err
	}
	headers := map[string]string{"Content-Type": "application/json; charset=utf-8"}
	for key, value := range s.headers {
		headers[key] = value
	}

	response, err := s.transport.Do(ctx, shared.OutboundRequest{
		Method:  http.MethodPost,
		URL:     s.endpointURL,
		Headers: headers,
		Body:    body,
		Accept:  shared.AcceptJSON,
		Retry:   true,
	})
	if err != nil {
		return nil, err
	}

	markup, err := DecodeMarkupPayload(response.Body)
	if err != nil {
		return nil, err
	}
	rows, err := ParseDataSetRows(markup, s.recordElement)
	if err != nil {
		return nil, err
	}

	candidates := make([]ListingCandidate, 0, len(rows))
	for _, row := range rows {
		candidate := ListingCandidate{
			Label: FirstField(row, s.labelFields...),
			Value: FirstField(row, s.valueFields...),
		}
		if candidate.Label == "" || candidate.Value == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// ListingSnapshotCache memoises fetched candidate lists for a short TTL so that different
// names resolved against the same registrar share one listing fetch. A nil cache is disabled.
type ListingSnapshotCache struct {
	cache *expirable.LRU[string, []ListingCandidate]
}

// NewListingSnapshotCache returns nil when ttl is zero
func NewListingSnapshotCache(size int, ttl time.Duration) *ListingSnapshotCache {
	if ttl <= 0 {
		return nil
	}
	if size <= 0 {
		size = 64
	}
	return &ListingSnapshotCache{
		cache: expirable.NewLRU[string, []ListingCandidate](size, nil, ttl),
	}
}

func snapshotKey(registrar models.RegistrarID, source ListingSource) string {
	return fmt.Sprintf("%s/%s", registrar, source.Name())
}

// Get returns a memoised list
func (c *ListingSnapshotCache) Get(registrar models.RegistrarID, source ListingSource) ([]ListingCandidate, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(snapshotKey(registrar, source))
}

// Add stores a freshly fetched list
func (c *ListingSnapshotCache) Add(registrar models.RegistrarID, source ListingSource, candidates []ListingCandidate) {
	if c == nil {
		return
	}
	c.cache.Add(snapshotKey(registrar, source), candidates)
}

// Purge drops every snapshot
func (c *ListingSnapshotCache) Purge() {
	if c == nil {
		return
	}
	c.cache.Purge()
}

// Len returns the number of live snapshots
func (c *ListingSnapshotCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
