// Package config holds user-configurable defaults for collection and
// analysis runs, persisted as JSON under the user's config directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Config holds collection and analysis defaults.
type Config struct {
	SSHPort         int    `json:"ssh_port"`
	WinRMPort       int    `json:"winrm_port"`
	WinRMHTTPS      bool   `json:"winrm_https"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
	MinConfidence   float64 `json:"min_confidence"`
	HistoryDBPath   string `json:"history_db_path,omitempty"`
	HistoryDSN      string `json:"history_dsn,omitempty"`
	LogLevel        string `json:"log_level"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		SSHPort:        22,
		WinRMPort:      5985,
		WinRMHTTPS:     false,
		TimeoutSeconds: 30,
		MinConfidence:  0.7,
		LogLevel:       "info",
	}
}

// Path returns ~/.config/hostsurvey/config.json (or XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "" // refuse to fall back to /tmp (security risk)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "hostsurvey", "config.json")
}

// Load loads config from disk; returns defaults on error.
func Load(logger *zap.Logger) Config {
	cfg := Default()
	p := Path()
	if p == "" {
		return cfg
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		if logger != nil {
			logger.Warn("config parse error, using defaults", zap.Error(err), zap.String("path", p))
		}
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// DefaultHistoryDBPath returns ~/.hostsurvey/history.db.
func DefaultHistoryDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hostsurvey", "history.db")
}
