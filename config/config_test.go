package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.SSHPort != 22 {
		t.Errorf("SSHPort = %d, want 22", cfg.SSHPort)
	}
	if cfg.WinRMPort != 5985 {
		t.Errorf("WinRMPort = %d, want 5985", cfg.WinRMPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestPathHonorsXDGConfigHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got := Path()
	want := filepath.Join(dir, "hostsurvey", "config.json")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := Default()
	cfg.MinConfidence = 0.75
	cfg.HistoryDSN = "postgres://localhost/hostsurvey"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(nil)
	if loaded.MinConfidence != 0.75 {
		t.Errorf("MinConfidence = %v, want 0.75", loaded.MinConfidence)
	}
	if loaded.HistoryDSN != "postgres://localhost/hostsurvey" {
		t.Errorf("HistoryDSN = %q", loaded.HistoryDSN)
	}
}

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg := Load(nil)
	if cfg.SSHPort != 22 {
		t.Errorf("expected defaults when no config file exists, got SSHPort=%d", cfg.SSHPort)
	}
}

func TestLoadFallsBackOnCorruptJSON(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	p := filepath.Join(dir, "hostsurvey", "config.json")
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg := Load(nil)
	if cfg.SSHPort != 22 {
		t.Errorf("expected defaults when config is corrupt, got SSHPort=%d", cfg.SSHPort)
	}
}
