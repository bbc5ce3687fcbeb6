// Package config loads the ledgerkeep configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the daemon needs to run: tenant identity, the
// local store location, and the remote sync endpoint.
type Config struct {
	// TenantID selects the tenant whose snapshot and queue are loaded.
	TenantID string `yaml:"tenant_id"`

	// UserID identifies this session on the real-time feed.
	// Events carrying the same user id are treated as self-echoes.
	UserID string `yaml:"user_id"`

	// StorePath is the SQLite database file. Defaults to ledgerkeep.db
	// in the working directory.
	StorePath string `yaml:"store_path,omitempty"`

	// Remote configures the sync backend. A zero Remote means the daemon
	// runs purely offline.
	Remote RemoteConfig `yaml:"remote,omitempty"`

	// DebounceMillis is the quiet interval before buffered real-time
	// events are flushed. Defaults to 400.
	DebounceMillis int `yaml:"debounce_millis,omitempty"`

	// ReplayLimit caps queue replay throughput in items per second.
	// Defaults to 20.
	ReplayLimit float64 `yaml:"replay_limit,omitempty"`

	// MetricsAddr is the listen address for the Prometheus endpoint.
	// Empty disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// RemoteConfig describes the sync backend connection.
type RemoteConfig struct {
	// BaseURL is the backend root, e.g. "https://api.example.com/v1".
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token presented on every request.
	Token string `yaml:"token,omitempty"`

	// TokenFile, if set, is read at startup and overrides Token.
	TokenFile string `yaml:"token_file,omitempty"`
}

// Defaults applied by Load when the file omits a field.
const (
	DefaultStorePath   = "ledgerkeep.db"
	DefaultDebounce    = 400 * time.Millisecond
	DefaultReplayLimit = 20.0
)

// Load reads and parses a config file. Unknown fields are rejected so
// typos surface at startup instead of silently defaulting.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no
// remote, suitable for offline use.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.finish()
	return cfg
}

func (c *Config) finish() error {
	if c.TenantID == "" {
		c.TenantID = "default"
	}
	if c.StorePath == "" {
		c.StorePath = DefaultStorePath
	}
	if c.DebounceMillis <= 0 {
		c.DebounceMillis = int(DefaultDebounce / time.Millisecond)
	}
	if c.ReplayLimit <= 0 {
		c.ReplayLimit = DefaultReplayLimit
	}
	if c.Remote.TokenFile != "" {
		tok, err := os.ReadFile(c.Remote.TokenFile)
		if err != nil {
			return fmt.Errorf("failed to read token file: %w", err)
		}
		c.Remote.Token = string(bytes.TrimSpace(tok))
	}
	return nil
}

// Debounce returns the configured debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// Online reports whether a remote backend is configured.
func (c *Config) Online() bool {
	return c.Remote.BaseURL != ""
}
