/*
Package config
File: config.go
Description:
    Server configuration. Defaults are compiled in, an optional YAML file
    ('server.yaml') overrides them, and RR_* environment variables override
    the file. Invalid environment values are logged and ignored.
*/

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Version mismatch policies for saves written under another save version.
const (
	MismatchReset = "reset" // Discard the save and start fresh
	MismatchKeep  = "keep"  // Load it anyway and repair it against the catalog
)

type Config struct {
	Addr              string          `yaml:"addr"`
	TickInterval      time.Duration   `yaml:"tick_interval"`
	ConnectRetryDelay time.Duration   `yaml:"connect_retry_delay"`
	CatalogPath       string          `yaml:"catalog_path"` // Empty = embedded catalog
	Session           SessionConfig   `yaml:"session"`
	Storage           StorageConfig   `yaml:"storage"`
	Transport         TransportConfig `yaml:"transport"`
}

type SessionConfig struct {
	Shards int `yaml:"shards"`
}

type StorageConfig struct {
	Driver          string        `yaml:"driver"` // "sqlite3", "postgres" or "memory"
	DSN             string        `yaml:"dsn"`
	Namespace       string        `yaml:"namespace"` // Prefix of the persisted record keys
	SaveVersion     int           `yaml:"save_version"`
	VersionMismatch string        `yaml:"version_mismatch"`
	WriteRetries    int           `yaml:"write_retries"`
	RetryBackoff    time.Duration `yaml:"retry_backoff"`
}

type TransportConfig struct {
	ClickRate  float64 `yaml:"click_rate"` // Actions per second per connection; 0 disables limiting
	ClickBurst int     `yaml:"click_burst"`
	SendBuffer int     `yaml:"send_buffer"`
}

func Default() Config {
	return Config{
		Addr:              ":8081",
		TickInterval:      time.Second,
		ConnectRetryDelay: 100 * time.Millisecond,
		Session:           SessionConfig{Shards: 16},
		Storage: StorageConfig{
			Driver:          "sqlite3",
			DSN:             "resource_rush.db",
			Namespace:       "ResourceRush",
			SaveVersion:     1,
			VersionMismatch: MismatchReset,
			WriteRetries:    3,
			RetryBackoff:    200 * time.Millisecond,
		},
		Transport: TransportConfig{
			ClickRate:  20,
			ClickBurst: 40,
			SendBuffer: 256,
		},
	}
}

// Load builds the effective configuration. A missing file is not an error.
func Load(path string, logger *log.Logger) (Config, error) {
	if logger == nil {
		logger = log.Default()
	}
	cfg := Default()

	if path != "" {
		f, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Printf("Config: %s not found, using defaults", path)
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(f, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg, logger)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, logger *log.Logger) {
	if raw := os.Getenv("RR_ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if raw := os.Getenv("RR_CATALOG"); raw != "" {
		cfg.CatalogPath = raw
	}
	if raw := os.Getenv("RR_STORAGE_DRIVER"); raw != "" {
		cfg.Storage.Driver = raw
	}
	if raw := os.Getenv("RR_STORAGE_DSN"); raw != "" {
		cfg.Storage.DSN = raw
	}
	if raw := os.Getenv("RR_TICK_INTERVAL"); raw != "" {
		if value, err := time.ParseDuration(raw); err == nil {
			cfg.TickInterval = value
		} else {
			logger.Printf("invalid RR_TICK_INTERVAL=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("RR_SAVE_VERSION"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Storage.SaveVersion = value
		} else {
			logger.Printf("invalid RR_SAVE_VERSION=%q: %v", raw, err)
		}
	}
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}
	if c.ConnectRetryDelay <= 0 {
		return fmt.Errorf("connect_retry_delay must be positive, got %v", c.ConnectRetryDelay)
	}
	if c.Session.Shards <= 0 {
		return fmt.Errorf("session.shards must be positive, got %d", c.Session.Shards)
	}
	switch c.Storage.Driver {
	case "sqlite3", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Namespace == "" {
		return errors.New("storage.namespace is required")
	}
	switch c.Storage.VersionMismatch {
	case MismatchReset, MismatchKeep:
	default:
		return fmt.Errorf("unknown version_mismatch policy %q", c.Storage.VersionMismatch)
	}
	if c.Storage.WriteRetries < 0 {
		return fmt.Errorf("storage.write_retries must not be negative")
	}
	if c.Transport.ClickRate < 0 {
		return fmt.Errorf("transport.click_rate must not be negative")
	}
	return nil
}
