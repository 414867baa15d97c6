// Package config provides configuration management for the leash tool.
// Configuration is stored in JSON format at ~/.leash.json and includes the
// supervisor poll interval and run-history preferences.
//
// The package gracefully handles missing configuration files by returning
// empty configurations, allowing the tool to work with sensible defaults
// when no explicit configuration exists.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds user preferences.
type Config struct {
	// PollIntervalMS bounds the supervisor's multiplexed wait (default 100).
	PollIntervalMS int `json:"poll_interval_ms,omitempty"`
	// History enables recording supervised runs to the history database.
	History bool `json:"history,omitempty"`
	// HistoryPath overrides the default ~/.leash/history.db location.
	HistoryPath string `json:"history_path,omitempty"`
}

func home() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	wd, _ := os.Getwd()
	return wd
}

// Path returns the absolute path to the leash configuration file (~/.leash.json).
func Path() string {
	return filepath.Join(home(), ".leash.json")
}

// Load reads configuration from disk. If missing, returns an empty config and nil error.
func Load() (*Config, error) {
	var cfg Config
	p := Path()
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return &Config{}, nil // treat parse issues as empty config (non-fatal)
	}
	return &cfg, nil
}

// Save writes configuration to disk.
func Save(cfg *Config) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(Path(), b, 0o644)
}

// PollInterval returns the configured supervisor poll interval, or zero when
// unset so the supervisor applies its own default.
func (c *Config) PollInterval() time.Duration {
	if c == nil || c.PollIntervalMS <= 0 {
		return 0
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// HistoryDBPath returns the run-history database location.
func (c *Config) HistoryDBPath() string {
	if c != nil && c.HistoryPath != "" {
		return c.HistoryPath
	}
	return filepath.Join(home(), ".leash", "history.db")
}

// HistoryEnabled reports whether runs should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c != nil && c.History
}
