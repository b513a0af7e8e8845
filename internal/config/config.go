package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.ripple/config.toml.
type Config struct {
	DefaultProfile string `toml:"default_profile"`
	Feed           Feed   `toml:"feed"`
	Seed           Seed   `toml:"seed"`
}

// Feed configures the client side of the push feed.
type Feed struct {
	URL                 string `toml:"url"`
	PingIntervalSeconds int    `toml:"ping_interval_seconds"`
	PongTimeoutSeconds  int    `toml:"pong_timeout_seconds"`
}

// Seed configures first-run store provisioning. Conversations = 0
// disables seeding.
type Seed struct {
	Conversations int `toml:"conversations"`
	Messages      int `toml:"messages"`
	WindowDays    int `toml:"window_days"`
}

// Default returns the configuration used when no config.toml exists.
func Default() *Config {
	return &Config{
		DefaultProfile: "default",
		Feed: Feed{
			URL:                 "ws://127.0.0.1:8787/feed",
			PingIntervalSeconds: 10,
			PongTimeoutSeconds:  25,
		},
		Seed: Seed{
			Conversations: 12,
			Messages:      300,
			WindowDays:    30,
		},
	}
}

// PingInterval returns the probe interval as a duration.
func (f Feed) PingInterval() time.Duration {
	return time.Duration(f.PingIntervalSeconds) * time.Second
}

// PongTimeout returns the liveness timeout as a duration.
func (f Feed) PongTimeout() time.Duration {
	return time.Duration(f.PongTimeoutSeconds) * time.Second
}

// Window returns the seeding time window as a duration.
func (s Seed) Window() time.Duration {
	return time.Duration(s.WindowDays) * 24 * time.Hour
}

// Load reads config from the given path. Returns an error if the file
// is missing; callers fall back to Default().
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
