package shared

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HostRateLimiter enforces a minimum delay between consecutive requests to the same host.
// Registrar sites are independent, so one slow host never delays another.
type HostRateLimiter struct {
	minimumDelay time.Duration
	mutex        sync.Mutex
	nextSlot     map[string]time.Time
	requestCount map[string]int64
}

// NewHostRateLimiter creates a limiter; a non-positive delay disables waiting
func NewHostRateLimiter(minimumDelay time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		minimumDelay: minimumDelay,
		nextSlot:     make(map[string]time.Time),
		requestCount: make(map[string]int64),
	}
}

// EnforceRateLimit blocks until the host's next request slot is reached
func (limiter *HostRateLimiter) EnforceRateLimit(host string) {
	limiter.mutex.Lock()
	limiter.requestCount[host]++
	if limiter.minimumDelay <= 0 {
		limiter.mutex.Unlock()
		return
	}

	now := time.Now()
	slot := limiter.nextSlot[host]
	if slot.Before(now) {
		slot = now
	}
	limiter.nextSlot[host] = slot.Add(limiter.minimumDelay)
	count := limiter.requestCount[host]
	limiter.mutex.Unlock()

	if wait := slot.Sub(now); wait > 0 {
		logrus.WithFields(logrus.Fields{
			"component":     "HostRateLimiter",
			"host":          host,
			"minimum_delay": limiter.minimumDelay,
			"wait":          wait,
			"request_count": count,
		}).Debug("Enforcing politeness delay")
		time.Sleep(wait)
	}
}

// GetRequestCount returns the number of requests seen for a host
func (limiter *HostRateLimiter) GetRequestCount(host string) int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount[host]
}
