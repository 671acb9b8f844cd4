package cmd

import "testing"

func TestBuildLoggerRejectsInvalidLevel(t *testing.T) {
	if _, err := buildLogger("not-a-level"); err == nil {
		t.Error("expected an error for an invalid log level")
	}
}

func TestBuildLoggerAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := buildLogger(level); err != nil {
			t.Errorf("buildLogger(%q): %v", level, err)
		}
	}
}
