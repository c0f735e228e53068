package services

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/sirupsen/logrus"
)

// RegistrarProbe is the outcome of one reachability probe
type RegistrarProbe struct {
	Registrar        models.RegistrarID `json:"registrar"`
	URL              string             `json:"url"`
	Reachable        bool               `json:"reachable"`
	StatusCode       int                `json:"status_code,omitempty"`
	LatencyMs        int64              `json:"latency_ms"`
	Error            string             `json:"error,omitempty"`
	OutboundRequests int64              `json:"outbound_requests"`
}

// HealthReport summarizes registrar reachability
type HealthReport struct {
	Healthy   int              `json:"healthy"`
	Total     int              `json:"total"`
	Probes    []RegistrarProbe `json:"probes"`
	CheckedAt time.Time        `json:"checked_at"`
}

// HealthProber GETs each registrar's base URL. Any HTTP answer, even a 4xx, counts as reachable.
type HealthProber struct {
	transport *shared.HTTPTransport
	profiles  []models.RegistrarProfile
}

func NewHealthProber(transport *shared.HTTPTransport, profiles []models.RegistrarProfile) *HealthProber {
	return &HealthProber{transport: transport, profiles: profiles}
}

// ProbeRegistrars checks every registrar in order
func (p *HealthProber) ProbeRegistrars(ctx context.Context) HealthReport {
	report := HealthReport{
		Total:  len(p.profiles),
		Probes: make([]RegistrarProbe, 0, len(p.profiles)),
	}

	for _, profile := range p.profiles {
		probe := p.probe(ctx, profile)
		if probe.Reachable {
			report.Healthy++
		}
		report.Probes = append(report.Probes, probe)
	}
	report.CheckedAt = time.Now()

	logrus.WithFields(logrus.Fields{
		"component": "HealthProber",
		"healthy":   report.Healthy,
		"total":     report.Total,
	}).Info("Registrar health probe completed")
	return report
}

func (p *HealthProber) probe(ctx context.Context, profile models.RegistrarProfile) RegistrarProbe {
	probe := RegistrarProbe{Registrar: profile.ID, URL: profile.BaseURL}
	started := time.Now()

	response, err := p.transport.Do(ctx, shared.OutboundRequest{
		Method: http.MethodGet,
		URL:    profile.BaseURL,
		Accept: shared.AcceptHTML,
	})
	probe.LatencyMs = time.Since(started).Milliseconds()
	if parsed, parseErr := url.Parse(profile.BaseURL); parseErr == nil {
		probe.OutboundRequests = p.transport.Limiter().GetRequestCount(parsed.Host)
	}

	if response != nil {
		probe.StatusCode = response.StatusCode
		probe.Reachable = true
		return probe
	}
	if err != nil {
		probe.Error = err.Error()
	}
	return probe
}
