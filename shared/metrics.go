package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	ChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allotment_checks_total",
			Help: "Allotment checks by registrar and normalized status",
		},
		[]string{"registrar", "status"},
	)

	CheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allotment_check_duration_seconds",
			Help:    "Duration of a single registrar check",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"registrar"},
	)

	ResolutionLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allotment_resolution_lookups_total",
			Help: "Identifier resolution lookups by registrar and result",
		},
		[]string{"registrar", "result"}, // hit|negative_hit|resolved|unresolved
	)

	ListingFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allotment_listing_fetches_total",
			Help: "Registrar listing page fetches by outcome",
		},
		[]string{"registrar", "outcome"}, // ok|unreachable|cached
	)

	OutboundRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allotment_outbound_requests_total",
			Help: "Outbound HTTP calls to registrar hosts",
		},
		[]string{"host", "outcome"},
	)

	OutboundRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allotment_outbound_request_duration_seconds",
			Help:    "Latency of outbound HTTP calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	OutboundRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allotment_outbound_retries_total",
			Help: "Retried outbound calls",
		},
		[]string{"host"},
	)
)

func init() {
	prometheus.MustRegister(ChecksTotal)
	prometheus.MustRegister(CheckDuration)
	prometheus.MustRegister(ResolutionLookupsTotal)
	prometheus.MustRegister(ListingFetchesTotal)
	prometheus.MustRegister(OutboundRequestsTotal)
	prometheus.MustRegister(OutboundRequestDuration)
	prometheus.MustRegister(OutboundRetriesTotal)
}

// ObserveCheck records the outcome of one registrar check
func ObserveCheck(registrar, status string, duration time.Duration) {
	ChecksTotal.WithLabelValues(registrar, status).Inc()
	CheckDuration.WithLabelValues(registrar).Observe(duration.Seconds())
}

// RecordResolutionLookup counts one resolver decision
func RecordResolutionLookup(registrar, result string) {
	ResolutionLookupsTotal.WithLabelValues(registrar, result).Inc()
}

// RecordListingFetch counts one listing source attempt
func RecordListingFetch(registrar, outcome string) {
	ListingFetchesTotal.WithLabelValues(registrar, outcome).Inc()
}

// ObserveOutboundRequest records one transport call
func ObserveOutboundRequest(host, outcome string, duration time.Duration) {
	OutboundRequestsTotal.WithLabelValues(host, outcome).Inc()
	OutboundRequestDuration.WithLabelValues(host).Observe(duration.Seconds())
}

// RecordOutboundRetry counts a retried call
func RecordOutboundRetry(host string) {
	OutboundRetriesTotal.WithLabelValues(host).Inc()
}

// RegistrarMetrics keeps an in-process summary of check outcomes for one registrar
type RegistrarMetrics struct {
	Registrar             string           `json:"registrar"`
	TotalChecks           int64            `json:"total_checks"`
	SuccessfulChecks      int64            `json:"successful_checks"`
	FailedChecks          int64            `json:"failed_checks"`
	StatusCounts          map[string]int64 `json:"status_counts"`
	AverageProcessingTime time.Duration    `json:"average_processing_time"`
	P95ProcessingTime     time.Duration    `json:"p95_processing_time"`
	LastChecked           time.Time        `json:"last_checked"`
	totalProcessingTime   time.Duration
	processingTimes       []time.Duration
	mutex                 sync.RWMutex
}

const maxLatencySamples = 1000

// NewRegistrarMetrics creates a metrics tracker for a registrar
func NewRegistrarMetrics(registrar string) *RegistrarMetrics {
	return &RegistrarMetrics{
		Registrar:       registrar,
		StatusCounts:    make(map[string]int64),
		processingTimes: make([]time.Duration, 0, 64),
	}
}

// RecordCheck records a check with its status and processing time
func (m *RegistrarMetrics) RecordCheck(success bool, status string, processingTime time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalChecks++
	if success {
		m.SuccessfulChecks++
	} else {
		m.FailedChecks++
	}
	m.StatusCounts[status]++
	m.totalProcessingTime += processingTime
	m.AverageProcessingTime = time.Duration(int64(m.totalProcessingTime) / m.TotalChecks)
	m.LastChecked = time.Now()

	// Keep the last maxLatencySamples samples for percentiles
	if len(m.processingTimes) >= maxLatencySamples {
		m.processingTimes = m.processingTimes[1:]
	}
	m.processingTimes = append(m.processingTimes, processingTime)
	m.P95ProcessingTime = percentile(m.processingTimes, 0.95)
}

// RegistrarMetricsSnapshot is a lock-free copy for serialization
type RegistrarMetricsSnapshot struct {
	Registrar             string           `json:"registrar"`
	TotalChecks           int64            `json:"total_checks"`
	SuccessfulChecks      int64            `json:"successful_checks"`
	FailedChecks          int64            `json:"failed_checks"`
	SuccessRate           float64          `json:"success_rate"`
	StatusCounts          map[string]int64 `json:"status_counts"`
	AverageProcessingTime string           `json:"average_processing_time"`
	P95ProcessingTime     string           `json:"p95_processing_time"`
	LastChecked           *time.Time       `json:"last_checked,omitempty"`
}

// GetSnapshot returns a thread-safe copy of the current metrics
func (m *RegistrarMetrics) GetSnapshot() RegistrarMetricsSnapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	statusCounts := make(map[string]int64, len(m.StatusCounts))
	for status, count := range m.StatusCounts {
		statusCounts[status] = count
	}

	snapshot := RegistrarMetricsSnapshot{
		Registrar:             m.Registrar,
		TotalChecks:           m.TotalChecks,
		SuccessfulChecks:      m.SuccessfulChecks,
		FailedChecks:          m.FailedChecks,
		StatusCounts:          statusCounts,
		AverageProcessingTime: m.AverageProcessingTime.String(),
		P95ProcessingTime:     m.P95ProcessingTime.String(),
	}
	if m.TotalChecks > 0 {
		snapshot.SuccessRate = float64(m.SuccessfulChecks) / float64(m.TotalChecks) * 100.0
		lastChecked := m.LastChecked
		snapshot.LastChecked = &lastChecked
	}
	return snapshot
}

// LogSummary logs a summary of the current metrics
func (m *RegistrarMetrics) LogSummary() {
	snapshot := m.GetSnapshot()
	logrus.WithFields(logrus.Fields{
		"registrar":               snapshot.Registrar,
		"total_checks":            snapshot.TotalChecks,
		"successful_checks":       snapshot.SuccessfulChecks,
		"failed_checks":           snapshot.FailedChecks,
		"success_rate":            snapshot.SuccessRate,
		"status_counts":           snapshot.StatusCounts,
		"average_processing_time": snapshot.AverageProcessingTime,
	}).Info("Registrar metrics summary")
}

// Reset clears all counters
func (m *RegistrarMetrics) Reset() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalChecks = 0
	m.SuccessfulChecks = 0
	m.FailedChecks = 0
	m.StatusCounts = make(map[string]int64)
	m.AverageProcessingTime = 0
	m.P95ProcessingTime = 0
	m.LastChecked = time.Time{}
	m.totalProcessingTime = 0
	m.processingTimes = m.processingTimes[:0]
}

func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
