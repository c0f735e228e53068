package shared

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ConfigureLogging applies level and format from configuration
func ConfigureLogging(config LoggingConfig) {
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(strings.TrimSpace(config.Level))
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", config.Level)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(config.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// MaskPAN keeps the first five and last characters of a PAN for log output
func MaskPAN(pan string) string {
	if len(pan) < 6 {
		return strings.Repeat("*", len(pan))
	}
	return pan[:5] + strings.Repeat("*", len(pan)-6) + pan[len(pan)-1:]
}
