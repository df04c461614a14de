// Package config provides configuration management for Ephemera.
// It loads settings from environment variables with the EPHEMERA_ prefix,
// then applies an optional YAML file on top. Sections in the file are
// flattened, so "logging: {level: DEBUG}" and "logging_level: DEBUG" are
// equivalent.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when EPHEMERA_CONFIG_PATH is not set.
const DefaultConfigPath = "config.yaml"

// ErrInvalidConfig is returned by Validate for out-of-range values.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configuration settings for the Ephemera processes.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	LLM       LLMConfig
	Logging   LoggingConfig
	Client    ClientConfig

	// Path is the config file that was read, empty when none was found.
	Path string
}

// AppConfig contains identity settings.
type AppConfig struct {
	Name        string // Display name (default: AI Lifeform)
	Environment string // development or production (default: development)
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int      // Server port (default: 8101)
	Host           string   // Server host (default: 127.0.0.1)
	RateLimit      float64  // Requests per second per client (default: 20)
	RateBurst      int      // Burst size (default: 40)
	AllowedOrigins []string // Websocket origin patterns (default: none, same-origin only)
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	DatabaseURL string // sqlite:///path, sqlite:///:memory: or postgres://...
}

// SchedulerConfig controls the metabolism tick.
type SchedulerConfig struct {
	IntervalSeconds int // Seconds between ticks (default: 180)
}

// Interval returns the tick interval as a duration.
func (s SchedulerConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// LLMConfig contains language model provider configuration.
type LLMConfig struct {
	OpenAIAPIKey  string // Empty selects the deterministic stub thinker
	OpenAIModel   string // Model name (default: gpt-4o-mini)
	OpenAIBaseURL string // Override for compatible gateways
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Level    string // DEBUG, INFO, WARNING, ERROR (default: INFO)
	FilePath string // JSON-lines file, empty disables (default: logs/app.jsonl)
	Console  bool   // Text output on stderr (default: true)
}

// ClientConfig is read by the CLI when it talks to a running server.
type ClientConfig struct {
	BaseURL      string        // Server address (default: http://127.0.0.1:8101)
	PollInterval time.Duration // Watch refresh period (default: 45s)
}

// LoadConfig loads configuration from environment variables and the file
// named by EPHEMERA_CONFIG_PATH. A missing file is not an error.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(getEnv("EPHEMERA_CONFIG_PATH", DefaultConfigPath))
}

// LoadConfigFile loads environment configuration and overlays path.
func LoadConfigFile(path string) (*Config, error) {
	cfg := buildBaseConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.applyYAML(data); err != nil {
				return nil, fmt.Errorf("config: %s: %w", path, err)
			}
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Scheduler.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: scheduler interval must be positive", ErrInvalidConfig)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Storage.DatabaseURL == "" {
		return fmt.Errorf("%w: database url is required", ErrInvalidConfig)
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults.
func buildBaseConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        getEnv("EPHEMERA_APP_NAME", "AI Lifeform"),
			Environment: getEnv("EPHEMERA_ENVIRONMENT", "development"),
		},
		Server: ServerConfig{
			Port:           getEnvInt("EPHEMERA_PORT", 8101),
			Host:           getEnv("EPHEMERA_HOST", "127.0.0.1"),
			RateLimit:      getEnvFloat("EPHEMERA_RATE_LIMIT", 20),
			RateBurst:      getEnvInt("EPHEMERA_RATE_BURST", 40),
			AllowedOrigins: splitList(getEnv("EPHEMERA_ALLOWED_ORIGINS", "")),
		},
		Storage: StorageConfig{
			DatabaseURL: getEnv("EPHEMERA_DATABASE_URL", "sqlite:///./data/lifeform.db"),
		},
		Scheduler: SchedulerConfig{
			IntervalSeconds: getEnvInt("EPHEMERA_SCHEDULER_INTERVAL_SECONDS", 180),
		},
		LLM: LLMConfig{
			OpenAIAPIKey:  getEnv("EPHEMERA_OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("EPHEMERA_OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: getEnv("EPHEMERA_OPENAI_BASE_URL", ""),
		},
		Logging: LoggingConfig{
			Level:    getEnv("EPHEMERA_LOG_LEVEL", "INFO"),
			FilePath: getEnv("EPHEMERA_LOG_FILE_PATH", "logs/app.jsonl"),
			Console:  getEnvBool("EPHEMERA_LOG_CONSOLE", true),
		},
		Client: ClientConfig{
			BaseURL:      getEnv("EPHEMERA_API_URL", "http://127.0.0.1:8101"),
			PollInterval: getEnvDuration("EPHEMERA_POLL_INTERVAL", 45*time.Second),
		},
	}
}

// setters maps flattened file keys onto config fields.
var setters = map[string]func(c *Config, v string) error{
	"app_name":                   func(c *Config, v string) error { c.App.Name = v; return nil },
	"environment":                func(c *Config, v string) error { c.App.Environment = v; return nil },
	"host":                       func(c *Config, v string) error { c.Server.Host = v; return nil },
	"port":                       intSetter(func(c *Config) *int { return &c.Server.Port }),
	"rate_limit":                 floatSetter(func(c *Config) *float64 { return &c.Server.RateLimit }),
	"rate_burst":                 intSetter(func(c *Config) *int { return &c.Server.RateBurst }),
	"allowed_origins":            func(c *Config, v string) error { c.Server.AllowedOrigins = splitList(v); return nil },
	"database_url":               func(c *Config, v string) error { c.Storage.DatabaseURL = v; return nil },
	"scheduler_interval_seconds": intSetter(func(c *Config) *int { return &c.Scheduler.IntervalSeconds }),
	"openai_api_key":             func(c *Config, v string) error { c.LLM.OpenAIAPIKey = v; return nil },
	"openai_model":               func(c *Config, v string) error { c.LLM.OpenAIModel = v; return nil },
	"openai_base_url":            func(c *Config, v string) error { c.LLM.OpenAIBaseURL = v; return nil },
	"logging_level":              func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"logging_file_path":          func(c *Config, v string) error { c.Logging.FilePath = v; return nil },
	"logging_console":            boolSetter(func(c *Config) *bool { return &c.Logging.Console }),
	"logging_console_rich":       boolSetter(func(c *Config) *bool { return &c.Logging.Console }),
	"client_base_url":            func(c *Config, v string) error { c.Client.BaseURL = v; return nil },
	"client_poll_interval":       durationSetter(func(c *Config) *time.Duration { return &c.Client.PollInterval }),
}

// applyYAML overlays document values. Unknown keys are ignored.
func (c *Config) applyYAML(data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	flat := make(map[string]string)
	flatten("", doc, flat)

	for key, value := range flat {
		set, ok := setters[key]
		if !ok {
			continue
		}
		if err := set(c, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// flatten joins nested section keys with underscores.
func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := strings.ToLower(k)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[key] = strings.Join(parts, ",")
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("expected integer, got %q", v)
		}
		*field(c) = n
		return nil
	}
}

func floatSetter(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		*field(c) = f
		return nil
	}
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("expected boolean, got %q", v)
		}
		*field(c) = b
		return nil
	}
}

func durationSetter(field func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("expected duration, got %q", v)
		}
		*field(c) = d
		return nil
	}
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, ok := parseBool(value); ok {
			return b
		}
	}
	return defaultValue
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}
