package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
)

func newTestTransport() *shared.HTTPTransport {
	return shared.NewHTTPTransport(shared.TransportConfig{
		Timeout:          5 * time.Second,
		PolitenessDelay:  0,
		MaxRetryAttempts: 0,
	})
}

func newStubServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func profileFor(t *testing.T, id models.RegistrarID, baseURL string) models.RegistrarProfile {
	t.Helper()
	table := NewRegistrarTable(map[string]string{string(id): baseURL}, nil)
	profile, ok := table.Get(id)
	if !ok {
		t.Fatalf("registrar %s not in default table", id)
	}
	return profile
}

// staticSource is an in-memory listing source that counts fetches
type staticSource struct {
	name       string
	candidates []ListingCandidate
	err        error
	fetches    int32
}

func (s *staticSource) Name() string {
	if s.name == "" {
		return "static"
	}
	return s.name
}

func (s *staticSource) FetchCandidates(ctx context.Context) ([]ListingCandidate, error) {
	atomic.AddInt32(&s.fetches, 1)
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

func (s *staticSource) Fetches() int {
	return int(atomic.LoadInt32(&s.fetches))
}

var errListingUnavailable = errors.New("listing unavailable")

// stubResolver answers from a fixed map
type stubResolver struct {
	names map[string]string
	calls int
}

func (r *stubResolver) Resolve(ctx context.Context, registrar models.RegistrarID, rawName string) (string, bool) {
	r.calls++
	value, ok := r.names[rawName]
	return value, ok
}
