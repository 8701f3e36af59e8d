package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Platform is the only accepted value of the platform key
const Platform = "fo_energy_production"

// EnvPrefix prefixes environment overrides, e.g. FOENERGY_MQTT_BROKER
const EnvPrefix = "FOENERGY"

var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for our application
type Config struct {
	Platform string         `mapstructure:"platform"`
	Areas    []string       `mapstructure:"areas"`
	Provider ProviderConfig `mapstructure:"provider"`
	Server   ServerConfig   `mapstructure:"server"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ProviderConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type ServerConfig struct {
	Host             string  `mapstructure:"host"`
	GRPCPort         int     `mapstructure:"grpc_port"`
	HTTPPort         int     `mapstructure:"http_port"`
	RateLimit        float64 `mapstructure:"rate_limit"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
	RefreshRateLimit float64 `mapstructure:"refresh_rate_limit"`
	CacheSize        int     `mapstructure:"cache_size"`
}

type MQTTConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Broker          string        `mapstructure:"broker"`
	ClientID        string        `mapstructure:"client_id"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	DiscoveryPrefix string        `mapstructure:"discovery_prefix"`
	StatePrefix     string        `mapstructure:"state_prefix"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadDotEnv loads environment files that exist. Variables already set in
// the environment win.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// First unmarshal into a map to handle type conversions
	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw config: %w", err)
	}

	// Convert the map to YAML again
	data, err = yaml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw config: %w", err)
	}

	// Expand environment variables
	expandedData := os.ExpandEnv(string(data))

	var expandedConfig map[string]interface{}
	if err := yaml.Unmarshal([]byte(expandedData), &expandedConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.MergeConfigMap(expandedConfig); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks everything except the area list, which the sensor
// adapter validates when it is configured
func (c *Config) Validate() error {
	if c.Platform != "" && c.Platform != Platform {
		return fmt.Errorf("%w: unsupported platform %q", ErrInvalid, c.Platform)
	}
	if c.Provider.URL == "" {
		return fmt.Errorf("%w: provider.url is required", ErrInvalid)
	}
	if c.Provider.Timeout <= 0 {
		return fmt.Errorf("%w: provider.timeout must be positive", ErrInvalid)
	}
	if c.Provider.PollInterval < time.Second {
		return fmt.Errorf("%w: provider.poll_interval must be at least 1s", ErrInvalid)
	}
	if c.Server.CacheSize <= 0 {
		return fmt.Errorf("%w: server.cache_size must be positive", ErrInvalid)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker is required when mqtt is enabled", ErrInvalid)
	}
	if _, err := logrus.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// NewLogger builds the application logger from the logging section
func NewLogger(cfg LoggingConfig) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("platform", Platform)
	v.SetDefault("areas", []string{})

	v.SetDefault("provider.url", "https://www.sev.fo/api/realtimemap/now")
	v.SetDefault("provider.timeout", "10s")
	v.SetDefault("provider.poll_interval", "5m")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("server.refresh_rate_limit", 1.0/60)
	v.SetDefault("server.cache_size", 64)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "fo_energy_production")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.discovery_prefix", "homeassistant")
	v.SetDefault("mqtt.state_prefix", "fo_energy_production")
	v.SetDefault("mqtt.timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
