package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingChecker(id models.RegistrarID, calls *int32) funcChecker {
	return funcChecker{id: id, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
		atomic.AddInt32(calls, 1)
		return newResult(id, models.StatusNotAllotted, nil, nil)
	}}
}

func newServiceWithCounters(resolver *RegistrarResolver) (*AllotmentService, *int32) {
	var calls int32
	profiles := DefaultRegistrarProfiles()
	checkers := make([]Checker, 0, len(profiles))
	for _, profile := range profiles {
		checkers = append(checkers, countingChecker(profile.ID, &calls))
	}
	return NewAllotmentService(NewDispatcher(profiles, checkers), resolver), &calls
}

func TestAllotmentService_ValidationFailsBeforeAnyCall(t *testing.T) {
	service, calls := newServiceWithCounters(nil)

	tests := []struct {
		name    string
		req     models.AllotmentRequest
		relaxed bool
		code    string
	}{
		{name: "missing pan", req: models.AllotmentRequest{IPOIdentifier: "Midwest"}, code: "PAN_REQUIRED"},
		{name: "lowercase pan", req: models.AllotmentRequest{PANNumber: "abcde1234f", IPOIdentifier: "Midwest"}, code: "INVALID_PAN"},
		{name: "short pan on strict path", req: models.AllotmentRequest{PANNumber: "ABCDE1234", IPOIdentifier: "Midwest"}, code: "INVALID_PAN"},
		{name: "missing ipo", req: models.AllotmentRequest{PANNumber: "ABCDE1234F", IPOIdentifier: "  "}, code: "IPO_REQUIRED"},
		{name: "unknown registrar", req: models.AllotmentRequest{PANNumber: "ABCDE1234F", IPOIdentifier: "Midwest", Registrar: "karvy"}, code: "UNKNOWN_REGISTRAR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := service.CheckAllotment(context.Background(), tt.req, tt.relaxed)
			require.Error(t, err)
			assert.Nil(t, results)

			var serviceErr *shared.ServiceError
			require.True(t, errors.As(err, &serviceErr))
			assert.Equal(t, tt.code, serviceErr.Code)
			assert.True(t, shared.IsValidationError(err))
		})
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestAllotmentService_RelaxedPANOnQueryPath(t *testing.T) {
	service, calls := newServiceWithCounters(nil)

	results, err := service.CheckAllotment(context.Background(), models.AllotmentRequest{
		PANNumber:     "ABCDE1234",
		IPOIdentifier: "Midwest",
		Registrar:     "Bigshare",
	}, true)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.RegistrarBigshare, results[0].Registrar)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestAllotmentService_AllRegistrars(t *testing.T) {
	service, calls := newServiceWithCounters(nil)

	results, err := service.CheckAllotment(context.Background(), models.AllotmentRequest{
		PANNumber:     " ABCDE1234F ",
		IPOIdentifier: "Midwest",
	}, false)

	require.NoError(t, err)
	assert.Len(t, results, len(models.AllRegistrarIDs()))
	assert.Equal(t, int32(len(models.AllRegistrarIDs())), atomic.LoadInt32(calls))
	assert.Len(t, service.ListSupportedRegistrars(), len(models.AllRegistrarIDs()))
	assert.Len(t, service.RegistrarMetrics(), len(models.AllRegistrarIDs()))
}

func TestAllotmentService_ResolutionCacheManagement(t *testing.T) {
	clock := newFakeClock()
	source := &staticSource{candidates: []ListingCandidate{{Label: "Midwest Limited", Value: "42"}}}
	resolver := NewRegistrarResolver(ResolverConfig{CacheTTL: time.Hour, CacheMaxSize: 10})
	resolver.Register(models.RegistrarBigshare, source).WithClock(clock.Now)
	service, _ := newServiceWithCounters(resolver)

	resolver.Resolve(context.Background(), models.RegistrarBigshare, "Midwest")
	resolver.Resolve(context.Background(), models.RegistrarBigshare, "Zenith")

	stats := service.ResolutionCacheStats()
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Size)
	assert.Equal(t, 1, stats[0].Negative)

	removed, err := service.SweepResolutionCaches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	clock.Advance(2 * time.Hour)
	removed, err = service.SweepResolutionCaches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	resolver.Resolve(context.Background(), models.RegistrarBigshare, "Midwest")
	assert.Equal(t, 1, service.FlushResolutionCaches())
	assert.Equal(t, 0, service.ResolutionCacheStats()[0].Size)
}

func TestAllotmentService_SweepHonoursCancelledContext(t *testing.T) {
	service, _ := newServiceWithCounters(NewRegistrarResolver(ResolverConfig{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := service.SweepResolutionCaches(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAllotmentService_NilResolver(t *testing.T) {
	service, _ := newServiceWithCounters(nil)

	assert.Empty(t, service.ResolutionCacheStats())
	assert.NotNil(t, service.ResolutionCacheStats())
	assert.Equal(t, 0, service.FlushResolutionCaches())
	removed, err := service.SweepResolutionCaches(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, removed)
}
