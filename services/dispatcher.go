package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/sirupsen/logrus"
)

// ErrUnknownRegistrar is the error text of a lookup against an unconfigured registrar
const ErrUnknownRegistrar = "unknown registrar"

// ErrNoCheckerConfigured is the error text for a configured registrar that has no checker
const ErrNoCheckerConfigured = "no checker configured"

// Dispatcher routes requests to per-registrar checkers. Checks run one at a time in
// configuration order, and a failing checker only fails its own result.
type Dispatcher struct {
	profiles []models.RegistrarProfile
	checkers map[models.RegistrarID]Checker
	metrics  map[models.RegistrarID]*shared.RegistrarMetrics
}

// NewDispatcher builds the static lookup table. A profile without a checker still answers,
// always with an Error result, so check-all keeps one result per configured registrar.
func NewDispatcher(profiles []models.RegistrarProfile, checkers []Checker) *Dispatcher {
	byID := make(map[models.RegistrarID]Checker, len(checkers))
	for _, checker := range checkers {
		byID[checker.Registrar()] = checker
	}

	dispatcher := &Dispatcher{
		checkers: make(map[models.RegistrarID]Checker, len(checkers)),
		metrics:  make(map[models.RegistrarID]*shared.RegistrarMetrics, len(checkers)),
	}
	for _, profile := range profiles {
		checker, ok := byID[profile.ID]
		if !ok {
			logrus.WithField("registrar", profile.ID).Warn("No checker configured for registrar")
			checker = unconfiguredChecker{id: profile.ID}
		}
		dispatcher.profiles = append(dispatcher.profiles, profile)
		dispatcher.checkers[profile.ID] = checker
		dispatcher.metrics[profile.ID] = shared.NewRegistrarMetrics(string(profile.ID))
	}
	return dispatcher
}

// Registrars returns the dispatchable profiles in configuration order
func (d *Dispatcher) Registrars() []models.RegistrarProfile {
	out := make([]models.RegistrarProfile, len(d.profiles))
	copy(out, d.profiles)
	return out
}

// CheckOne runs a single registrar
func (d *Dispatcher) CheckOne(ctx context.Context, registrar models.RegistrarID, req models.AllotmentRequest) models.AllotmentResult {
	checker, ok := d.checkers[registrar]
	if !ok {
		return models.AllotmentResult{
			Success:   false,
			Registrar: registrar,
			Status:    models.StatusError,
			Error:     ErrUnknownRegistrar,
			CheckedAt: time.Now(),
		}
	}
	return d.run(ctx, checker, req)
}

// CheckAll runs every registrar sequentially and returns one result each, in order
func (d *Dispatcher) CheckAll(ctx context.Context, req models.AllotmentRequest) []models.AllotmentResult {
	started := time.Now()
	results := make([]models.AllotmentResult, 0, len(d.profiles))
	failures := make([]error, 0)

	for _, profile := range d.profiles {
		result := d.run(ctx, d.checkers[profile.ID], req)
		if !result.Success {
			failures = append(failures, fmt.Errorf("%s: %s", profile.ID, result.Error))
		}
		results = append(results, result)
	}

	entry := logrus.WithFields(logrus.Fields{
		"component":  "AllotmentDispatcher",
		"pan":        shared.MaskPAN(req.PANNumber),
		"registrars": len(results),
		"duration":   time.Since(started),
	})
	if len(failures) > 0 {
		entry.Info(shared.BuildBatchProcessingErrorSummary(len(results)-len(failures), len(failures), failures))
	} else {
		entry.Info("Checked all registrars")
	}
	return results
}

// Metrics returns per-registrar check summaries in configuration order
func (d *Dispatcher) Metrics() []shared.RegistrarMetricsSnapshot {
	snapshots := make([]shared.RegistrarMetricsSnapshot, 0, len(d.profiles))
	for _, profile := range d.profiles {
		snapshots = append(snapshots, d.metrics[profile.ID].GetSnapshot())
	}
	return snapshots
}

// ResetMetrics clears every registrar's check summary and returns how many were reset
func (d *Dispatcher) ResetMetrics() int {
	for _, profile := range d.profiles {
		d.metrics[profile.ID].Reset()
	}
	return len(d.profiles)
}

// LogMetricsSummary writes each registrar's check summary to the log
func (d *Dispatcher) LogMetricsSummary() {
	for _, profile := range d.profiles {
		d.metrics[profile.ID].LogSummary()
	}
}

type unconfiguredChecker struct {
	id models.RegistrarID
}

func (c unconfiguredChecker) Registrar() models.RegistrarID {
	return c.id
}

func (c unconfiguredChecker) Check(ctx context.Context, panNumber, ipoIdentifier string) models.AllotmentResult {
	return errorResult(c.id, errors.New(ErrNoCheckerConfigured), nil)
}

// run isolates one checker: inbound cancellation is not propagated and panics become Error results
func (d *Dispatcher) run(ctx context.Context, checker Checker, req models.AllotmentRequest) (result models.AllotmentResult) {
	registrar := checker.Registrar()
	started := time.Now()

	defer func() {
		if recovered := recover(); recovered != nil {
			logrus.WithFields(logrus.Fields{
				"component": "AllotmentDispatcher",
				"registrar": registrar,
				"panic":     recovered,
			}).Error("Checker panicked")
			result = models.AllotmentResult{
				Success:   false,
				Registrar: registrar,
				Status:    models.StatusError,
				Error:     fmt.Sprintf("checker failed unexpectedly: %v", recovered),
			}
		}
		result = d.finalize(registrar, result, started)
	}()

	return checker.Check(context.WithoutCancel(ctx), req.PANNumber, req.IPOIdentifier)
}

// finalize stamps bookkeeping fields and keeps the status and error invariants
func (d *Dispatcher) finalize(registrar models.RegistrarID, result models.AllotmentResult, started time.Time) models.AllotmentResult {
	duration := time.Since(started)

	result.Registrar = registrar
	if result.Status == "" {
		result.Status = models.StatusUnknown
	}
	if result.Success {
		result.Error = ""
	} else if result.Error == "" {
		result.Error = string(result.Status)
	}
	if result.CheckedAt.IsZero() {
		result.CheckedAt = time.Now()
	}
	result.DurationMs = duration.Milliseconds()

	shared.ObserveCheck(string(registrar), string(result.Status), duration)
	if metrics, ok := d.metrics[registrar]; ok {
		metrics.RecordCheck(result.Success, string(result.Status), duration)
	}
	return result
}
