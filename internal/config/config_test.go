package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
platform: fo_energy_production
areas:
  - suduroy
  - total

provider:
  url: "http://localhost:9000/now"
  timeout: 3s
  poll_interval: 1m

server:
  host: "127.0.0.1"
  grpc_port: 6000
  http_port: 6001
  cache_size: 8

mqtt:
  enabled: true
  broker: "tcp://broker:1883"
  username: "ha"

logging:
  level: "debug"
  format: "text"
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, Platform, config.Platform)
	assert.Equal(t, []string{"suduroy", "total"}, config.Areas)
	assert.Equal(t, "http://localhost:9000/now", config.Provider.URL)
	assert.Equal(t, 3*time.Second, config.Provider.Timeout)
	assert.Equal(t, time.Minute, config.Provider.PollInterval)
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 6000, config.Server.GRPCPort)
	assert.Equal(t, 6001, config.Server.HTTPPort)
	assert.Equal(t, 8, config.Server.CacheSize)
	assert.True(t, config.MQTT.Enabled)
	assert.Equal(t, "tcp://broker:1883", config.MQTT.Broker)
	assert.Equal(t, "ha", config.MQTT.Username)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "text", config.Logging.Format)

	// untouched keys keep their defaults
	assert.Equal(t, "homeassistant", config.MQTT.DiscoveryPrefix)
	assert.Equal(t, 5*time.Second, config.MQTT.Timeout)
	assert.Equal(t, 10, config.Server.RateLimitBurst)
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load(writeConfig(t, "areas: [main]\n"))
	require.NoError(t, err)

	assert.Equal(t, Platform, config.Platform)
	assert.Equal(t, []string{"main"}, config.Areas)
	assert.Equal(t, "https://www.sev.fo/api/realtimemap/now", config.Provider.URL)
	assert.Equal(t, 10*time.Second, config.Provider.Timeout)
	assert.Equal(t, 5*time.Minute, config.Provider.PollInterval)
	assert.Equal(t, 50051, config.Server.GRPCPort)
	assert.Equal(t, 8080, config.Server.HTTPPort)
	assert.False(t, config.MQTT.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "json", config.Logging.Format)
}

func TestLoadWithEnvOverride(t *testing.T) {
	// Set environment variables
	t.Setenv("APP_MQTT_BROKER", "tcp://envhost:1883")
	t.Setenv("APP_HTTP_PORT", "9090")

	configPath := writeConfig(t, `
areas: [main]
server:
  http_port: $APP_HTTP_PORT
mqtt:
  enabled: true
  broker: $APP_MQTT_BROKER
`)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "tcp://envhost:1883", config.MQTT.Broker)
	assert.Equal(t, 9090, config.Server.HTTPPort)
}

func TestLoadWithPrefixedEnv(t *testing.T) {
	t.Setenv("FOENERGY_AREAS", "suduroy,main")
	t.Setenv("FOENERGY_LOGGING_LEVEL", "warn")
	t.Setenv("FOENERGY_PROVIDER_POLL_INTERVAL", "2m")

	config, err := Load(writeConfig(t, "areas: [total]\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"suduroy", "main"}, config.Areas)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, 2*time.Minute, config.Provider.PollInterval)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{name: "malformed yaml", content: "areas: [main\n"},
		{name: "wrong platform", content: "platform: wunderground\nareas: [main]\n", invalid: true},
		{name: "zero timeout", content: "provider:\n  timeout: 0s\n", invalid: true},
		{name: "poll too fast", content: "provider:\n  poll_interval: 10ms\n", invalid: true},
		{name: "mqtt without broker", content: "mqtt:\n  enabled: true\n", invalid: true},
		{name: "bad log level", content: "logging:\n  level: loud\n", invalid: true},
		{name: "no cache", content: "server:\n  cache_size: 0\n", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Nil(t, config)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("FOENERGY_TEST_DOTENV=loaded\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("FOENERGY_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "loaded", os.Getenv("FOENERGY_TEST_DOTENV"))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger, err = NewLogger(LoggingConfig{Level: "info", Format: "text"})
	require.NoError(t, err)
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	_, err = NewLogger(LoggingConfig{Level: "nope"})
	assert.Error(t, err)
}
