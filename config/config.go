package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Marketeye MarketeyeConfig `yaml:"marketeye"`
	Server    ServerConfig    `yaml:"server"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type MarketeyeConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type ChannelsConfig struct {
	EventBuffer int `yaml:"event_buffer"`
}

// UpstreamConfig describes the Alpaca endpoints. Credentials come from the
// environment only (ALPACA_API_KEY / ALPACA_SECRET_KEY), never from YAML.
type UpstreamConfig struct {
	BaseURL         string          `yaml:"base_url"`
	DataURL         string          `yaml:"data_url"`
	StreamURL       string          `yaml:"stream_url"`
	CryptoStreamURL string          `yaml:"crypto_stream_url"`
	Feed            string          `yaml:"feed"`
	Paper           bool            `yaml:"paper"`
	Timeout         time.Duration   `yaml:"timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`

	APIKey    string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type MetricsConfig struct {
	CloudWatch             CloudWatchConfig `yaml:"cloudwatch"`
	ResourceReportInterval time.Duration    `yaml:"resource_report_interval"`
}

type CloudWatchConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Region    string        `yaml:"region"`
	Namespace string        `yaml:"namespace"`
	Interval  time.Duration `yaml:"interval"`
}

// HasCredentials reports whether upstream API keys are configured. Without
// them streaming sessions degrade to a single error event.
func (u UpstreamConfig) HasCredentials() bool {
	return u.APIKey != "" && u.SecretKey != ""
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Server: ServerConfig{
			Address:      ":8000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Channels: ChannelsConfig{EventBuffer: 256},
		Upstream: UpstreamConfig{
			BaseURL:         "https://paper-api.alpaca.markets",
			DataURL:         "https://data.alpaca.markets",
			StreamURL:       "wss://stream.data.alpaca.markets/v2",
			CryptoStreamURL: "wss://stream.data.alpaca.markets/v1beta3/crypto/us",
			Feed:            "iex",
			Paper:           true,
			Timeout:         6 * time.Second,
			RateLimit:       RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10},
		},
		Logging: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Upstream.APIKey = strings.TrimSpace(os.Getenv("ALPACA_API_KEY"))

	secret := os.Getenv("ALPACA_SECRET_KEY")
	if secret == "" {
		secret = os.Getenv("ALPACA_API_SECRET")
	}
	cfg.Upstream.SecretKey = strings.TrimSpace(secret)

	if v := os.Getenv("ALPACA_PAPER"); v != "" {
		cfg.Upstream.Paper = strings.EqualFold(strings.TrimSpace(v), "true")
	}

	// Paper must be resolved before the base URL: without an explicit
	// override the trading host follows the paper/live setting.
	if v := os.Getenv("ALPACA_BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = strings.TrimSpace(v)
	} else if !cfg.Upstream.Paper {
		cfg.Upstream.BaseURL = "https://api.alpaca.markets"
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Upstream.DataURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("ALPACA_FEED"); v != "" {
		cfg.Upstream.Feed = strings.TrimSpace(v)
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Marketeye.Name == "" {
		return fmt.Errorf("marketeye.name is required")
	}

	if cfg.Marketeye.Version == "" {
		return fmt.Errorf("marketeye.version is required")
	}

	if cfg.Channels.EventBuffer <= 0 {
		return fmt.Errorf("channels.event_buffer must be greater than 0")
	}

	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}

	if cfg.Upstream.Feed == "" {
		return fmt.Errorf("upstream.feed is required")
	}

	if cfg.Upstream.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("upstream.rate_limit.requests_per_second must be greater than 0")
	}

	return nil
}

// EquityStreamURL builds the feed-specific equity stream endpoint.
func (u UpstreamConfig) EquityStreamURL() string {
	return strings.TrimSuffix(u.StreamURL, "/") + "/" + u.Feed
}
