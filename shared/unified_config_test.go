package shared

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndApplyDefaults(t *testing.T) {
	config := &UnifiedConfiguration{
		Server:     ServerConfig{CheckRateLimit: -5},
		Transport:  TransportSettings{PolitenessDelay: -time.Second, MaxRetryAttempts: -1},
		Resolution: ResolutionConfig{CacheTTL: 0, CacheMaxSize: -1},
		Listing:    ListingConfig{SnapshotTTL: -time.Minute},
	}

	config.ValidateAndApplyDefaults()

	defaults := NewDefaultUnifiedConfiguration()
	assert.Equal(t, defaults.Server.Port, config.Server.Port)
	assert.Equal(t, 0, config.Server.CheckRateLimit)
	assert.Equal(t, defaults.Transport.HTTPRequestTimeout, config.Transport.HTTPRequestTimeout)
	assert.Equal(t, time.Duration(0), config.Transport.PolitenessDelay)
	assert.Equal(t, 0, config.Transport.MaxRetryAttempts)
	assert.Equal(t, 24*time.Hour, config.Resolution.CacheTTL)
	assert.Equal(t, 1000, config.Resolution.CacheMaxSize)
	assert.Equal(t, time.Duration(0), config.Listing.SnapshotTTL)
	assert.Equal(t, "@every 1h", config.Jobs.CacheSweepSchedule)
	assert.Equal(t, "allotment-gateway", config.Logging.ServiceName)
	assert.NotNil(t, config.Registrars.BaseURLOverrides)
}

func TestUnifiedConfiguration_JSONRoundTrip(t *testing.T) {
	config := NewDefaultUnifiedConfiguration()
	config.Registrars.Generic = []string{"cameo"}

	data, err := config.ToJSON()
	require.NoError(t, err)

	loaded := &UnifiedConfiguration{}
	require.NoError(t, loaded.LoadFromJSON(data))
	assert.Equal(t, config, loaded)

	assert.Error(t, loaded.LoadFromJSON([]byte("{")))
}

func TestTransportConfigConversion(t *testing.T) {
	config := NewDefaultUnifiedConfiguration()
	assert.Equal(t, DefaultTransportConfig(), config.TransportConfig())
}

func TestConfigureLogging(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	ConfigureLogging(LoggingConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	ConfigureLogging(LoggingConfig{Level: "loud", Format: "text"})
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)
}
