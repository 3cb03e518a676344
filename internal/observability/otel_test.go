package observability

import (
	"context"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled ignores bad values", func(c *Config) { c.Exporter = "nope" }, false},
		{"stdout", func(c *Config) { c.Enabled = true }, false},
		{"otlp needs endpoint", func(c *Config) { c.Enabled = true; c.Exporter = "otlp" }, true},
		{"otlp", func(c *Config) { c.Enabled = true; c.Exporter = "otlp"; c.Endpoint = "localhost:4318" }, false},
		{"unknown exporter", func(c *Config) { c.Enabled = true; c.Exporter = "zipkin" }, true},
		{"ratio too high", func(c *Config) { c.Enabled = true; c.SampleRatio = 1.5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestInitOTelDisabled(t *testing.T) {
	shutdown, err := InitOTel(context.Background(), DefaultConfig(), "test", nil)
	if err != nil {
		t.Fatalf("InitOTel: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitOTelStdout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	shutdown, err := InitOTel(context.Background(), cfg, "test", nil)
	if err != nil {
		t.Fatalf("InitOTel: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
