package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func defaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Delivery.Mode != DeliveryQueue {
		t.Errorf("expected queue delivery, got %s", cfg.Delivery.Mode)
	}
	if cfg.Queue.Name != "jetson-nano-object-classification-requests" {
		t.Errorf("unexpected queue name %s", cfg.Queue.Name)
	}
	if cfg.Artifact.Container != "jetson-nano-object-classification-responses" {
		t.Errorf("unexpected container %s", cfg.Artifact.Container)
	}
	if cfg.Device.ResponseTimeout != 30*time.Second {
		t.Errorf("expected 30s device timeout, got %s", cfg.Device.ResponseTimeout)
	}
	if cfg.Jobs.DefaultThresholdPercentage != 70 {
		t.Errorf("expected default threshold 70, got %d", cfg.Jobs.DefaultThresholdPercentage)
	}
	if cfg.Server.WriteTimeout <= cfg.Device.ResponseTimeout {
		t.Error("write timeout must exceed the device response timeout")
	}
	if cfg.NeedsPostgres() {
		t.Error("default artifact backend should not need postgres")
	}
	if !cfg.NeedsRabbitMQ() {
		t.Error("default queue backend should need rabbitmq")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DELIVERY_MODE", "direct")
	t.Setenv("DEVICE_ID", "jetson-01")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("ARTIFACT_BACKEND", "postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Delivery.Mode != DeliveryDirect {
		t.Errorf("expected direct delivery, got %s", cfg.Delivery.Mode)
	}
	if cfg.Device.ID != "jetson-01" {
		t.Errorf("expected jetson-01, got %s", cfg.Device.ID)
	}
	if cfg.Jobs.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %s", cfg.Jobs.PollInterval)
	}
	if !cfg.NeedsPostgres() || cfg.NeedsRabbitMQ() {
		t.Error("unexpected backend requirements")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown delivery mode", func(c *Config) { c.Delivery.Mode = "carrier-pigeon" }, "DELIVERY_MODE"},
		{"unknown queue backend", func(c *Config) { c.Queue.Backend = "sqs" }, "QUEUE_BACKEND"},
		{"missing queue name", func(c *Config) { c.Queue.Name = "" }, "QUEUE_NAME"},
		{"missing device", func(c *Config) { c.Delivery.Mode = DeliveryDirect; c.Device.ID = "" }, "DEVICE_ID"},
		{"zero device timeout", func(c *Config) { c.Delivery.Mode = DeliveryDirect; c.Device.ResponseTimeout = 0 }, "DEVICE_RESPONSE_TIMEOUT"},
		{"unknown artifact backend", func(c *Config) { c.Artifact.Backend = "s3" }, "ARTIFACT_BACKEND"},
		{"missing database url", func(c *Config) { c.Artifact.Backend = ArtifactPostgres; c.Database.URL = "" }, "DATABASE_URL"},
		{"threshold out of range", func(c *Config) { c.Jobs.DefaultThresholdPercentage = 101 }, "DEFAULT_THRESHOLD_PERCENTAGE"},
		{"poll interval too short", func(c *Config) { c.Jobs.PollInterval = 500 * time.Millisecond }, "POLL_INTERVAL"},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "API_PORT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
