package services

import (
	"context"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/sirupsen/logrus"
)

// AllotmentService is the front door used by the HTTP handlers and background jobs
type AllotmentService struct {
	dispatcher *Dispatcher
	resolver   *RegistrarResolver
}

// NewAllotmentService wires a dispatcher and the resolver whose caches it manages
func NewAllotmentService(dispatcher *Dispatcher, resolver *RegistrarResolver) *AllotmentService {
	return &AllotmentService{
		dispatcher: dispatcher,
		resolver:   resolver,
	}
}

// CheckAllotment validates the request and checks one registrar or all of them.
// Validation failures are returned as *shared.ServiceError before any outbound call.
func (s *AllotmentService) CheckAllotment(ctx context.Context, req models.AllotmentRequest, relaxedPAN bool) ([]models.AllotmentResult, error) {
	validated, err := ValidateAllotmentRequest(req, relaxedPAN)
	if err != nil {
		return nil, err
	}

	logger := logrus.WithFields(logrus.Fields{
		"component": "AllotmentService",
		"pan":       shared.MaskPAN(validated.PANNumber),
		"ipo":       validated.IPOIdentifier,
	})

	if validated.Registrar != "" {
		logger.WithField("registrar", validated.Registrar).Debug("Checking single registrar")
		return []models.AllotmentResult{s.dispatcher.CheckOne(ctx, validated.Registrar, validated)}, nil
	}

	logger.Debug("Checking all registrars")
	return s.dispatcher.CheckAll(ctx, validated), nil
}

// ListSupportedRegistrars returns the dispatchable registrars in configuration order
func (s *AllotmentService) ListSupportedRegistrars() []models.RegistrarProfile {
	return s.dispatcher.Registrars()
}

// RegistrarMetrics returns in-process check summaries per registrar
func (s *AllotmentService) RegistrarMetrics() []shared.RegistrarMetricsSnapshot {
	return s.dispatcher.Metrics()
}

// ResetRegistrarMetrics clears the in-process check summaries
func (s *AllotmentService) ResetRegistrarMetrics() int {
	reset := s.dispatcher.ResetMetrics()
	logrus.WithFields(logrus.Fields{
		"component":  "AllotmentService",
		"registrars": reset,
	}).Info("Reset registrar check summaries")
	return reset
}

// LogMetricsSummary logs per-registrar check summaries
func (s *AllotmentService) LogMetricsSummary() {
	s.dispatcher.LogMetricsSummary()
}

// ResolutionCacheStats returns per-registrar resolution cache statistics
func (s *AllotmentService) ResolutionCacheStats() []models.ResolutionCacheStats {
	if s.resolver == nil {
		return []models.ResolutionCacheStats{}
	}
	return s.resolver.CacheStats()
}

// FlushResolutionCaches empties every resolution cache and returns the number of entries removed
func (s *AllotmentService) FlushResolutionCaches() int {
	if s.resolver == nil {
		return 0
	}
	removed := s.resolver.ClearCaches()
	logrus.WithFields(logrus.Fields{
		"component": "AllotmentService",
		"removed":   removed,
	}).Info("Flushed resolution caches")
	return removed
}

// SweepResolutionCaches drops expired resolution entries
func (s *AllotmentService) SweepResolutionCaches(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.resolver == nil {
		return 0, nil
	}

	started := time.Now()
	removed := s.resolver.SweepCaches()
	logrus.WithFields(logrus.Fields{
		"component": "AllotmentService",
		"removed":   removed,
		"duration":  time.Since(started),
	}).Debug("Swept resolution caches")
	return removed, nil
}
