package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcChecker adapts a function to the Checker interface
type funcChecker struct {
	id    models.RegistrarID
	check func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult
}

func (c funcChecker) Registrar() models.RegistrarID {
	return c.id
}

func (c funcChecker) Check(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
	return c.check(ctx, panNumber, ipoIdentifier)
}

func fixedChecker(id models.RegistrarID, status models.StatusKind) funcChecker {
	return funcChecker{id: id, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
		return newResult(id, status, nil, nil)
	}}
}

func testRequest() models.AllotmentRequest {
	return models.AllotmentRequest{PANNumber: "ABCDE1234F", IPOIdentifier: "Midwest"}
}

func TestDispatcher_CheckAllKeepsConfigurationOrder(t *testing.T) {
	profiles := DefaultRegistrarProfiles()
	checkers := make([]Checker, 0, len(profiles))
	for i := len(profiles) - 1; i >= 0; i-- {
		checkers = append(checkers, fixedChecker(profiles[i].ID, models.StatusNotAllotted))
	}
	dispatcher := NewDispatcher(profiles, checkers)

	results := dispatcher.CheckAll(context.Background(), testRequest())

	require.Len(t, results, len(models.AllRegistrarIDs()))
	for i, result := range results {
		assert.Equal(t, models.AllRegistrarIDs()[i], result.Registrar)
		assert.True(t, result.Success)
		assert.Empty(t, result.Error)
		assert.False(t, result.CheckedAt.IsZero())
	}
}

func TestDispatcher_PanicIsIsolated(t *testing.T) {
	profiles := DefaultRegistrarProfiles()[:3]
	dispatcher := NewDispatcher(profiles, []Checker{
		fixedChecker(profiles[0].ID, models.StatusAllotted),
		funcChecker{id: profiles[1].ID, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
			panic("selector returned nil")
		}},
		fixedChecker(profiles[2].ID, models.StatusNoRecordFound),
	})

	results := dispatcher.CheckAll(context.Background(), testRequest())

	require.Len(t, results, 3)
	assert.Equal(t, models.StatusAllotted, results[0].Status)
	assert.False(t, results[1].Success)
	assert.Equal(t, models.StatusError, results[1].Status)
	assert.Equal(t, profiles[1].ID, results[1].Registrar)
	assert.Contains(t, results[1].Error, "selector returned nil")
	assert.Equal(t, models.StatusNoRecordFound, results[2].Status)
}

func TestDispatcher_HangingRegistrarTimesOut(t *testing.T) {
	server := newStubServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	table := NewRegistrarTable(map[string]string{"beetal": server.URL}, []string{"beetal"})
	beetal, _ := table.Get(models.RegistrarBeetal)
	bigshare, _ := table.Get(models.RegistrarBigshare)

	transport := shared.NewHTTPTransport(shared.TransportConfig{Timeout: 100 * time.Millisecond})
	dispatcher := NewDispatcher([]models.RegistrarProfile{bigshare, beetal}, []Checker{
		fixedChecker(models.RegistrarBigshare, models.StatusNotAllotted),
		NewGenericChecker(beetal, transport),
	})

	started := time.Now()
	results := dispatcher.CheckAll(context.Background(), testRequest())

	assert.Less(t, time.Since(started), 2*time.Second)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, models.StatusError, results[1].Status)
	assert.NotEmpty(t, results[1].Error)
}

func TestDispatcher_InboundCancellationIsNotPropagated(t *testing.T) {
	profiles := DefaultRegistrarProfiles()[:1]
	var seen error
	dispatcher := NewDispatcher(profiles, []Checker{
		funcChecker{id: profiles[0].ID, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
			seen = ctx.Err()
			return newResult(profiles[0].ID, models.StatusPending, nil, nil)
		}},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := dispatcher.CheckOne(ctx, profiles[0].ID, testRequest())

	assert.NoError(t, seen)
	assert.Equal(t, models.StatusPending, result.Status)
}

func TestDispatcher_UnknownRegistrar(t *testing.T) {
	profiles := DefaultRegistrarProfiles()[:1]
	dispatcher := NewDispatcher(profiles, []Checker{fixedChecker(profiles[0].ID, models.StatusAllotted)})

	result := dispatcher.CheckOne(context.Background(), models.RegistrarPurva, testRequest())

	assert.False(t, result.Success)
	assert.Equal(t, models.StatusError, result.Status)
	assert.Equal(t, ErrUnknownRegistrar, result.Error)
	assert.Equal(t, models.RegistrarPurva, result.Registrar)
}

func TestDispatcher_FinalizeKeepsResultInvariants(t *testing.T) {
	profiles := DefaultRegistrarProfiles()[:3]
	dispatcher := NewDispatcher(profiles, []Checker{
		funcChecker{id: profiles[0].ID, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
			return models.AllotmentResult{Success: false, Status: models.StatusCaptchaRequired}
		}},
		funcChecker{id: profiles[1].ID, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
			return models.AllotmentResult{Success: true, Status: models.StatusAllotted, Error: "stale"}
		}},
		funcChecker{id: profiles[2].ID, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
			return models.AllotmentResult{Success: true}
		}},
	})

	results := dispatcher.CheckAll(context.Background(), testRequest())

	assert.Equal(t, string(models.StatusCaptchaRequired), results[0].Error)
	assert.Equal(t, profiles[0].ID, results[0].Registrar)
	assert.Empty(t, results[1].Error)
	assert.Equal(t, models.StatusUnknown, results[2].Status)
	for _, result := range results {
		assert.False(t, result.CheckedAt.IsZero())
		assert.GreaterOrEqual(t, result.DurationMs, int64(0))
	}
}

func TestDispatcher_ProfileWithoutCheckerStillAnswers(t *testing.T) {
	profiles := DefaultRegistrarProfiles()
	dispatcher := NewDispatcher(profiles, []Checker{fixedChecker(models.RegistrarMaashitla, models.StatusAllotted)})

	assert.Len(t, dispatcher.Registrars(), len(profiles))

	results := dispatcher.CheckAll(context.Background(), testRequest())
	require.Len(t, results, len(profiles))
	for i, result := range results {
		assert.Equal(t, profiles[i].ID, result.Registrar)
		if profiles[i].ID == models.RegistrarMaashitla {
			assert.Equal(t, models.StatusAllotted, result.Status)
			continue
		}
		assert.False(t, result.Success)
		assert.Equal(t, models.StatusError, result.Status)
		assert.Equal(t, ErrNoCheckerConfigured, result.Error)
	}

	single := dispatcher.CheckOne(context.Background(), models.RegistrarCameo, testRequest())
	assert.Equal(t, ErrNoCheckerConfigured, single.Error)
}

func TestDispatcher_RecordsMetrics(t *testing.T) {
	profiles := DefaultRegistrarProfiles()[:2]
	dispatcher := NewDispatcher(profiles, []Checker{
		fixedChecker(profiles[0].ID, models.StatusAllotted),
		funcChecker{id: profiles[1].ID, check: func(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
			return models.AllotmentResult{Success: false, Status: models.StatusError, Error: "boom"}
		}},
	})

	dispatcher.CheckAll(context.Background(), testRequest())
	dispatcher.CheckAll(context.Background(), testRequest())

	snapshots := dispatcher.Metrics()
	require.Len(t, snapshots, 2)
	assert.Equal(t, string(profiles[0].ID), snapshots[0].Registrar)
	assert.Equal(t, int64(2), snapshots[0].TotalChecks)
	assert.Equal(t, int64(2), snapshots[0].SuccessfulChecks)
	assert.Equal(t, int64(2), snapshots[0].StatusCounts[string(models.StatusAllotted)])
	assert.Equal(t, int64(2), snapshots[1].FailedChecks)
	assert.Equal(t, 0.0, snapshots[1].SuccessRate)

	assert.Equal(t, 2, dispatcher.ResetMetrics())
	for _, snapshot := range dispatcher.Metrics() {
		assert.Equal(t, int64(0), snapshot.TotalChecks)
	}
}
