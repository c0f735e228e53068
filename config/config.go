package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fenilmodi00/allotment-gateway/models"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort              string
	CheckRateLimit          string
	LogLevel                string
	LogFormat               string
	HTTPTimeoutSeconds      string
	ResolutionCacheTTLHours string
	ResolutionCacheMaxSize  string
	ListingCacheTTLMinutes  string
	PolitenessDelayMs       string
	ListingMaxRetries       string
	HeadlessFallback        string
	GenericRegistrars       string
	CacheSweepSchedule      string
	ConfigFile              string
	RegistrarBaseURLs       map[models.RegistrarID]string
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}
	return fromEnvironment()
}

func fromEnvironment() *Config {
	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		CheckRateLimit:          getEnv("CHECK_RATE_LIMIT_PER_MINUTE", "30"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "text"),
		HTTPTimeoutSeconds:      getEnv("HTTP_TIMEOUT_SECONDS", "30"),
		ResolutionCacheTTLHours: getEnv("RESOLUTION_CACHE_TTL_HOURS", "24"),
		ResolutionCacheMaxSize:  getEnv("RESOLUTION_CACHE_MAX_SIZE", "1000"),
		ListingCacheTTLMinutes:  getEnv("LISTING_CACHE_TTL_MINUTES", "10"),
		PolitenessDelayMs:       getEnv("POLITENESS_DELAY_MS", "250"),
		ListingMaxRetries:       getEnv("LISTING_MAX_RETRIES", "1"),
		HeadlessFallback:        getEnv("HEADLESS_FALLBACK", "false"),
		GenericRegistrars:       getEnv("GENERIC_REGISTRARS", ""),
		CacheSweepSchedule:      getEnv("CACHE_SWEEP_SCHEDULE", "@every 1h"),
		ConfigFile:              getEnv("CONFIG_FILE", ""),
		RegistrarBaseURLs:       make(map[models.RegistrarID]string),
	}

	for _, id := range models.AllRegistrarIDs() {
		key := "REGISTRAR_" + strings.ToUpper(string(id)) + "_BASE_URL"
		if value := strings.TrimSpace(getEnv(key, "")); value != "" {
			cfg.RegistrarBaseURLs[id] = value
		}
	}

	return cfg
}

// GetResolutionCacheTTL returns the resolution cache TTL from environment or default
func (c *Config) GetResolutionCacheTTL() time.Duration {
	hours := parseInt("RESOLUTION_CACHE_TTL_HOURS", c.ResolutionCacheTTLHours, 24)
	if hours <= 0 {
		logrus.Warnf("Invalid RESOLUTION_CACHE_TTL_HOURS value: %s, using default 24 hours", c.ResolutionCacheTTLHours)
		return 24 * time.Hour
	}
	return time.Duration(hours) * time.Hour
}

// GetListingCacheTTL returns the listing snapshot TTL; zero disables the snapshot cache
func (c *Config) GetListingCacheTTL() time.Duration {
	minutes := parseInt("LISTING_CACHE_TTL_MINUTES", c.ListingCacheTTLMinutes, 10)
	if minutes < 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// GetGenericRegistrars returns the registrars demoted to the generic checker
func (c *Config) GetGenericRegistrars() []models.RegistrarID {
	var ids []models.RegistrarID
	for _, part := range strings.Split(c.GenericRegistrars, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, ok := models.ParseRegistrarID(part)
		if !ok {
			logrus.Warnf("Ignoring unknown registrar in GENERIC_REGISTRARS: %s", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ToUnified converts the raw environment values into typed configuration
func (c *Config) ToUnified() *shared.UnifiedConfiguration {
	unified := shared.NewDefaultUnifiedConfiguration()

	unified.Server.Port = c.ServerPort
	unified.Server.CheckRateLimit = parseInt("CHECK_RATE_LIMIT_PER_MINUTE", c.CheckRateLimit, 30)
	unified.Transport.HTTPRequestTimeout = time.Duration(parseInt("HTTP_TIMEOUT_SECONDS", c.HTTPTimeoutSeconds, 30)) * time.Second
	unified.Transport.PolitenessDelay = time.Duration(parseInt("POLITENESS_DELAY_MS", c.PolitenessDelayMs, 250)) * time.Millisecond
	unified.Transport.MaxRetryAttempts = parseInt("LISTING_MAX_RETRIES", c.ListingMaxRetries, 1)
	unified.Resolution.CacheTTL = c.GetResolutionCacheTTL()
	unified.Resolution.CacheMaxSize = parseInt("RESOLUTION_CACHE_MAX_SIZE", c.ResolutionCacheMaxSize, 1000)
	unified.Listing.SnapshotTTL = c.GetListingCacheTTL()
	unified.Browser.HeadlessFallback = parseBool(c.HeadlessFallback)
	unified.Jobs.CacheSweepSchedule = c.CacheSweepSchedule
	unified.Logging.Level = c.LogLevel
	unified.Logging.Format = c.LogFormat

	for id, baseURL := range c.RegistrarBaseURLs {
		unified.Registrars.BaseURLOverrides[string(id)] = baseURL
	}
	for _, id := range c.GetGenericRegistrars() {
		unified.Registrars.Generic = append(unified.Registrars.Generic, string(id))
	}

	unified.ValidateAndApplyDefaults()
	return unified
}

// LoadUnified builds typed configuration from the environment and then overlays the JSON file
// named by CONFIG_FILE, if any. Keys absent from the file keep their environment values.
func (c *Config) LoadUnified() (*shared.UnifiedConfiguration, error) {
	unified := c.ToUnified()
	path := strings.TrimSpace(c.ConfigFile)
	if path == "" {
		return unified, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CONFIG_FILE %s: %w", path, err)
	}
	if err := unified.LoadFromJSON(data); err != nil {
		return nil, fmt.Errorf("failed to load CONFIG_FILE %s: %w", path, err)
	}
	logrus.WithField("config_file", path).Info("Loaded configuration file")
	return unified, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseInt(key, value string, fallback int) int {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
