package config

import (
	"os"
	"testing"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad(t *testing.T) {
	// Test default configuration
	unsetEnv(t, "INVENTORY_DB_PATH", "INVENTORY_ADDR", "INVENTORY_LOG_LEVEL",
		"ENABLE_METRICS", "INVENTORY_MAX_UPLOAD", "INVENTORY_MAPPING_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != "inventory.db" {
		t.Errorf("Expected default INVENTORY_DB_PATH, got %s", cfg.DBPath)
	}
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Expected default INVENTORY_ADDR, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default INVENTORY_LOG_LEVEL, got %s", cfg.LogLevel)
	}
	if cfg.EnableMetrics {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("Expected default INVENTORY_MAX_UPLOAD, got %d", cfg.MaxUploadBytes)
	}
	if cfg.MappingPath != "" {
		t.Errorf("Expected empty INVENTORY_MAPPING_PATH, got %s", cfg.MappingPath)
	}
}

func TestLoadWithEnvironment(t *testing.T) {
	t.Setenv("INVENTORY_DB_PATH", " /tmp/assets.db ")
	t.Setenv("INVENTORY_ADDR", "localhost:9090")
	t.Setenv("INVENTORY_LOG_LEVEL", "debug")
	t.Setenv("ENABLE_METRICS", "true")
	t.Setenv("INVENTORY_MAX_UPLOAD", "1024")
	t.Setenv("INVENTORY_MAPPING_PATH", "mapping.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != "/tmp/assets.db" {
		t.Errorf("Expected INVENTORY_DB_PATH from env, got %q", cfg.DBPath)
	}
	if cfg.Addr != "localhost:9090" {
		t.Errorf("Expected INVENTORY_ADDR from env, got %s", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected INVENTORY_LOG_LEVEL from env, got %s", cfg.LogLevel)
	}
	if !cfg.EnableMetrics {
		t.Error("Expected ENABLE_METRICS from env")
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("Expected INVENTORY_MAX_UPLOAD from env, got %d", cfg.MaxUploadBytes)
	}
	if cfg.MappingPath != "mapping.yaml" {
		t.Errorf("Expected INVENTORY_MAPPING_PATH from env, got %s", cfg.MappingPath)
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("ENABLE_METRICS", "maybe")

	if _, err := Load(); err == nil {
		t.Error("Load() should fail with a malformed boolean")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBPath:         "inventory.db",
			Addr:           "127.0.0.1:8080",
			LogLevel:       "info",
			MaxUploadBytes: 1 << 20,
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "localhost", mutate: func(c *Config) { c.Addr = "localhost:8080" }},
		{name: "ipv6 loopback", mutate: func(c *Config) { c.Addr = "[::1]:8080" }},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, expectError: true},
		{name: "missing port", mutate: func(c *Config) { c.Addr = "127.0.0.1" }, expectError: true},
		{name: "all interfaces", mutate: func(c *Config) { c.Addr = ":8080" }, expectError: true},
		{name: "public address", mutate: func(c *Config) { c.Addr = "192.168.1.10:8080" }, expectError: true},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "loud" }, expectError: true},
		{name: "zero upload limit", mutate: func(c *Config) { c.MaxUploadBytes = 0 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestLoadAndValidate(t *testing.T) {
	unsetEnv(t, "INVENTORY_DB_PATH", "INVENTORY_LOG_LEVEL", "ENABLE_METRICS", "INVENTORY_MAX_UPLOAD")
	t.Setenv("INVENTORY_ADDR", "127.0.0.1:8081")

	cfg, err := LoadAndValidate()
	if err != nil {
		t.Errorf("LoadAndValidate() failed with valid config: %v", err)
	}
	if cfg == nil {
		t.Error("LoadAndValidate() returned nil config with valid config")
	}

	t.Setenv("INVENTORY_ADDR", "0.0.0.0:8081")

	_, err = LoadAndValidate()
	if err == nil {
		t.Error("LoadAndValidate() should fail with a non-loopback address")
	}
}

func TestIsLoopbackHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"127.0.0.2", true},
		{"::1", true},
		{"[::1]", true},
		{"0.0.0.0", false},
		{"10.0.0.1", false},
		{"attacker.example", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := IsLoopbackHost(tt.host); got != tt.want {
				t.Errorf("IsLoopbackHost(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}
