package config

import (
	"net"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config holds process settings. Every value has a working default so the
// manager starts with an empty environment.
type Config struct {
	DBPath         string `env:"INVENTORY_DB_PATH" envDefault:"inventory.db"`
	Addr           string `env:"INVENTORY_ADDR" envDefault:"127.0.0.1:8080"`
	LogLevel       string `env:"INVENTORY_LOG_LEVEL" envDefault:"info"`
	EnableMetrics  bool   `env:"ENABLE_METRICS" envDefault:"false"`
	MaxUploadBytes int64  `env:"INVENTORY_MAX_UPLOAD" envDefault:"20971520"`
	MappingPath    string `env:"INVENTORY_MAPPING_PATH"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	return cfg, nil
}

// Validate checks the configuration. The listen address must be a loopback
// address: the window is for the local user only.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("INVENTORY_DB_PATH must not be empty")
	}

	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return errors.Wrapf(err, "invalid INVENTORY_ADDR %q", c.Addr)
	}
	if port == "" {
		return errors.Errorf("INVENTORY_ADDR %q has no port", c.Addr)
	}
	if !IsLoopbackHost(host) {
		return errors.Errorf("INVENTORY_ADDR host %q is not a loopback address", host)
	}

	switch c.LogLevel {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown INVENTORY_LOG_LEVEL %q", c.LogLevel)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("INVENTORY_MAX_UPLOAD must be positive")
	}
	return nil
}

func LoadAndValidate() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsLoopbackHost reports whether host is "localhost" or a loopback IP. IPv6
// literals may carry their brackets.
func IsLoopbackHost(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
