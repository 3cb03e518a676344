// Package config loads service configuration from an optional YAML file
// and VERBA_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/verba/internal/llm"
	"github.com/abhisek/verba/internal/observability"
	"github.com/abhisek/verba/internal/realtime"
	"github.com/abhisek/verba/internal/store"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig         `yaml:"server"`
	Log       LogConfig            `yaml:"log"`
	Database  store.Config         `yaml:"database"`
	Redis     realtime.RedisConfig `yaml:"redis"`
	LLM       llm.Config           `yaml:"llm"`
	Telemetry observability.Config `yaml:"telemetry"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	Mode        string   `yaml:"mode"` // gin mode: "debug", "release" or "test"
	CORSOrigins []string `yaml:"cors_origins"`
	JWTSecret   string   `yaml:"jwt_secret"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"` // "development" or "production"
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set. The LLM
// provider is left empty so Load can discover one from API keys.
func Default() Config {
	llmCfg := llm.DefaultConfig()
	llmCfg.Provider = ""
	return Config{
		Server: ServerConfig{
			Addr:        ":8080",
			Mode:        "release",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{
			Mode:  "production",
			Level: "info",
		},
		Database:  store.Config{Driver: "sqlite"},
		LLM:       llmCfg,
		Telemetry: observability.DefaultConfig(),
	}
}

// Load reads path (if non-empty), then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.resolveProvider()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "VERBA_ADDR")
	setString(&c.Server.Mode, "VERBA_MODE")
	setString(&c.Server.JWTSecret, "VERBA_JWT_SECRET")
	if v := os.Getenv("VERBA_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString(&c.Log.Mode, "VERBA_LOG_MODE")
	setString(&c.Log.Level, "VERBA_LOG_LEVEL")

	setString(&c.Database.Driver, "VERBA_DB_DRIVER")
	setString(&c.Database.DSN, "VERBA_DB_DSN")

	setString(&c.Redis.Addr, "VERBA_REDIS_ADDR")
	setString(&c.Redis.Password, "VERBA_REDIS_PASSWORD")
	setString(&c.Redis.Channel, "VERBA_REDIS_CHANNEL")

	if v := os.Getenv("VERBA_OTEL_ENABLED"); v != "" {
		c.Telemetry.Enabled = parseBool(v)
	}
	setString(&c.Telemetry.Exporter, "VERBA_OTEL_EXPORTER")
	setString(&c.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	if v := os.Getenv("VERBA_OTEL_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Telemetry.SampleRatio = f
		}
	}

	c.LLM.ApplyEnv()
}

// resolveProvider picks a provider from plain API key variables when none
// was configured explicitly.
func (c *Config) resolveProvider() {
	if c.LLM.Provider != "" {
		return
	}
	if found, ok := llm.DiscoverConfig(); ok {
		found.Retry = c.LLM.Retry
		found.Timeout = c.LLM.Timeout
		c.LLM = found
		return
	}
	c.LLM.Provider = "gemini"
}

// Validate checks that the configuration can start the server.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server addr is required")
	}
	if strings.TrimSpace(c.Server.JWTSecret) == "" {
		return fmt.Errorf("server jwt_secret is required (set VERBA_JWT_SECRET)")
	}
	switch c.Database.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
