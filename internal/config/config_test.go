package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets provider keys that would leak into discovery.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"VERBA_LLM_PROVIDER", "VERBA_GEMINI_API_KEY", "VERBA_JWT_SECRET", "VERBA_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.LLM.Provider)
	}
	if cfg.LLM.Retry.MaxAttempts != 4 {
		t.Errorf("MaxAttempts = %d, want 4", cfg.LLM.Retry.MaxAttempts)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected Validate to fail without jwt secret")
	}
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "verba.yaml")
	yamlDoc := `
server:
  addr: ":9090"
  jwt_secret: from-file
  cors_origins: ["https://app.example.com"]
database:
  driver: postgres
  dsn: postgres://localhost/verba
llm:
  provider: mock
  timeout: 30s
  retry:
    max_attempts: 2
    initial_wait: 250ms
    multiplier: 3
telemetry:
  enabled: true
  exporter: stdout
  sample_ratio: 0.5
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("VERBA_ADDR", ":7070")
	t.Setenv("VERBA_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Addr = %q, env should win", cfg.Server.Addr)
	}
	if cfg.Server.JWTSecret != "from-file" {
		t.Errorf("JWTSecret = %q", cfg.Server.JWTSecret)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("Driver = %q", cfg.Database.Driver)
	}
	if cfg.LLM.Provider != "mock" || cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.Retry.MaxAttempts != 2 || cfg.LLM.Retry.InitialWait != 250*time.Millisecond || cfg.LLM.Retry.Multiplier != 3 {
		t.Errorf("Retry = %+v", cfg.LLM.Retry)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.SampleRatio != 0.5 {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadDiscoversProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "anthropic" || cfg.LLM.Anthropic.APIKey != "sk-ant" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v", cfg.LLM.Timeout)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Default()
		c.Server.JWTSecret = "s"
		c.LLM.Provider = "mock"
		return c
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"gemini without key", func(c *Config) { c.LLM.Provider = "gemini" }, true},
		{"bad telemetry", func(c *Config) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "x" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
