package shared

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// UnifiedConfiguration holds all typed configuration for the gateway
type UnifiedConfiguration struct {
	Server     ServerConfig      `json:"server"`
	Transport  TransportSettings `json:"transport"`
	Resolution ResolutionConfig  `json:"resolution"`
	Listing    ListingConfig     `json:"listing"`
	Browser    BrowserConfig     `json:"browser"`
	Jobs       JobsConfig        `json:"jobs"`
	Logging    LoggingConfig     `json:"logging"`
	Registrars RegistrarsConfig  `json:"registrars"`
}

// ServerConfig holds inbound HTTP configuration
type ServerConfig struct {
	Port           string `json:"port"`
	CheckRateLimit int    `json:"check_rate_limit"`
}

// TransportSettings holds outbound HTTP configuration
type TransportSettings struct {
	HTTPRequestTimeout time.Duration `json:"http_timeout"`
	PolitenessDelay    time.Duration `json:"politeness_delay"`
	MaxRetryAttempts   int           `json:"max_retries"`
}

// ResolutionConfig bounds each per-registrar resolution cache
type ResolutionConfig struct {
	CacheTTL     time.Duration `json:"cache_ttl"`
	CacheMaxSize int           `json:"cache_max_size"`
}

// ListingConfig controls listing snapshot memoisation; a zero TTL disables it
type ListingConfig struct {
	SnapshotTTL  time.Duration `json:"snapshot_ttl"`
	SnapshotSize int           `json:"snapshot_size"`
}

// BrowserConfig enables the headless form-page fallback
type BrowserConfig struct {
	HeadlessFallback bool `json:"headless_fallback"`
}

// JobsConfig holds scheduled job configuration
type JobsConfig struct {
	CacheSweepSchedule string `json:"cache_sweep_schedule"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Format      string `json:"format"`
	ServiceName string `json:"service_name"`
}

// RegistrarsConfig carries per-registrar endpoint overrides
type RegistrarsConfig struct {
	BaseURLOverrides map[string]string `json:"base_url_overrides,omitempty"`
	Generic          []string          `json:"generic,omitempty"`
}

// NewDefaultUnifiedConfiguration returns production-ready default configuration
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Server: ServerConfig{Port: "8080", CheckRateLimit: 30},
		Transport: TransportSettings{
			HTTPRequestTimeout: 30 * time.Second,
			PolitenessDelay:    250 * time.Millisecond,
			MaxRetryAttempts:   1,
		},
		Resolution: ResolutionConfig{
			CacheTTL:     24 * time.Hour,
			CacheMaxSize: 1000,
		},
		Listing: ListingConfig{
			SnapshotTTL:  10 * time.Minute,
			SnapshotSize: 64,
		},
		Jobs: JobsConfig{CacheSweepSchedule: "@every 1h"},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			ServiceName: "allotment-gateway",
		},
		Registrars: RegistrarsConfig{BaseURLOverrides: map[string]string{}},
	}
}

// TransportConfig converts the transport section for NewHTTPTransport
func (c *UnifiedConfiguration) TransportConfig() TransportConfig {
	return TransportConfig{
		Timeout:          c.Transport.HTTPRequestTimeout,
		PolitenessDelay:  c.Transport.PolitenessDelay,
		MaxRetryAttempts: c.Transport.MaxRetryAttempts,
	}
}

// ValidateAndApplyDefaults validates configuration and applies defaults for invalid values
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")
	defaults := NewDefaultUnifiedConfiguration()

	if c.Server.Port == "" {
		c.Server.Port = defaults.Server.Port
		logger.Debug("Applied default Server.Port")
	}

	if c.Server.CheckRateLimit < 0 {
		c.Server.CheckRateLimit = 0
	}

	if c.Transport.HTTPRequestTimeout <= 0 {
		c.Transport.HTTPRequestTimeout = defaults.Transport.HTTPRequestTimeout
		logger.Debug("Applied default Transport.HTTPRequestTimeout")
	}

	if c.Transport.PolitenessDelay < 0 {
		c.Transport.PolitenessDelay = 0
		logger.Debug("Clamped Transport.PolitenessDelay to zero")
	}

	if c.Transport.MaxRetryAttempts < 0 {
		c.Transport.MaxRetryAttempts = 0
		logger.Debug("Clamped Transport.MaxRetryAttempts to zero")
	}

	if c.Resolution.CacheTTL <= 0 {
		c.Resolution.CacheTTL = defaults.Resolution.CacheTTL
		logger.Debug("Applied default Resolution.CacheTTL")
	}

	if c.Resolution.CacheMaxSize <= 0 {
		c.Resolution.CacheMaxSize = defaults.Resolution.CacheMaxSize
		logger.Debug("Applied default Resolution.CacheMaxSize")
	}

	if c.Listing.SnapshotTTL < 0 {
		c.Listing.SnapshotTTL = 0
	}
	if c.Listing.SnapshotSize <= 0 {
		c.Listing.SnapshotSize = defaults.Listing.SnapshotSize
	}

	if c.Jobs.CacheSweepSchedule == "" {
		c.Jobs.CacheSweepSchedule = defaults.Jobs.CacheSweepSchedule
		logger.Debug("Applied default Jobs.CacheSweepSchedule")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = defaults.Logging.ServiceName
	}

	if c.Registrars.BaseURLOverrides == nil {
		c.Registrars.BaseURLOverrides = map[string]string{}
	}
}

// ToJSON serializes the configuration to JSON
func (c *UnifiedConfiguration) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFromJSON deserializes configuration from JSON
func (c *UnifiedConfiguration) LoadFromJSON(jsonData []byte) error {
	if err := json.Unmarshal(jsonData, c); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	c.ValidateAndApplyDefaults()
	return nil
}
