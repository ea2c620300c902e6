package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the console.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	DatabaseAPI DatabaseAPIConfig `yaml:"database_api"`
	Automation  AutomationConfig  `yaml:"automation"`
	Redis       RedisConfig       `yaml:"redis"`
	Import      ImportConfig      `yaml:"import"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	LogLevel    string            `yaml:"log_level"`
}

// ServerConfig holds the local HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseAPIConfig holds the remote database API endpoint.
type DatabaseAPIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c DatabaseAPIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// AutomationConfig holds the automation process endpoints: the control
// API (start/stop) and the telemetry stream.
type AutomationConfig struct {
	BaseURL        string `yaml:"base_url"`
	StreamURL      string `yaml:"stream_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c AutomationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds the redis connection used for read caches and
// import progress snapshots.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// ImportConfig tunes the bulk import pipeline.
type ImportConfig struct {
	ChunkSize       int `yaml:"chunk_size"`
	ChunkDelayMS    int `yaml:"chunk_delay_ms"`
	MaxBatchRecords int `yaml:"max_batch_records"`
}

// ChunkDelay returns the inter-chunk pause as a duration.
func (c ImportConfig) ChunkDelay() time.Duration {
	return time.Duration(c.ChunkDelayMS) * time.Millisecond
}

// TelemetryConfig tunes the stream consumer. The reconnect delay is
// fixed (no backoff growth); see internal/telemetry.
type TelemetryConfig struct {
	ReconnectSeconds int `yaml:"reconnect_seconds"`
}

// ReconnectDelay returns the fixed reconnect delay as a duration.
func (c TelemetryConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectSeconds) * time.Second
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8090
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.DatabaseAPI.BaseURL == "" {
		c.DatabaseAPI.BaseURL = "http://localhost:8000"
	}
	if c.DatabaseAPI.TimeoutSeconds == 0 {
		c.DatabaseAPI.TimeoutSeconds = 30
	}
	if c.Automation.BaseURL == "" {
		c.Automation.BaseURL = "http://localhost:8001"
	}
	if c.Automation.StreamURL == "" {
		c.Automation.StreamURL = "ws://localhost:8000/ws/automation"
	}
	if c.Automation.TimeoutSeconds == 0 {
		c.Automation.TimeoutSeconds = 30
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Import.ChunkSize == 0 {
		c.Import.ChunkSize = 25
	}
	if c.Import.ChunkDelayMS == 0 {
		c.Import.ChunkDelayMS = 250
	}
	if c.Import.MaxBatchRecords == 0 {
		c.Import.MaxBatchRecords = 5000
	}
	if c.Telemetry.ReconnectSeconds == 0 {
		c.Telemetry.ReconnectSeconds = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so local development can
// keep endpoints there while deployments use real env vars.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No config file is fine; defaults plus env cover local runs.
		cfg = &Config{}
		cfg.applyDefaults()
	}

	if v := os.Getenv("DATABASE_API_URL"); v != "" {
		cfg.DatabaseAPI.BaseURL = v
	}
	if v := os.Getenv("AUTOMATION_API_URL"); v != "" {
		cfg.Automation.BaseURL = v
	}
	if v := os.Getenv("AUTOMATION_STREAM_URL"); v != "" {
		cfg.Automation.StreamURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CONSOLE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
