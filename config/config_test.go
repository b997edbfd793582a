// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d, want 5000", cfg.Port)
	}
	if cfg.TickHz != 20.0 {
		t.Errorf("TickHz = %v, want 20.0", cfg.TickHz)
	}
	if cfg.ReconnectThreshold != 3*time.Second {
		t.Errorf("ReconnectThreshold = %v, want 3s", cfg.ReconnectThreshold)
	}
	if cfg.HeartbeatTimeout != 30*time.Second {
		t.Errorf("HeartbeatTimeout = %v, want 30s", cfg.HeartbeatTimeout)
	}
}

func TestLoadReadsEnvironmentOverride(t *testing.T) {
	os.Setenv("PORT", "9001")
	defer os.Unsetenv("PORT")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9001 {
		t.Errorf("Port = %d, want 9001 from PORT env var", cfg.Port)
	}
}

func TestLoadFlagOverridesEnvironment(t *testing.T) {
	os.Setenv("PORT", "9001")
	defer os.Unsetenv("PORT")

	cfg, err := Load([]string{"-port", "7000"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want 7000 from explicit flag", cfg.Port)
	}
}

func TestLoadRejectsNonPositiveTickHz(t *testing.T) {
	if _, err := Load([]string{"-tick-hz", "0"}); err == nil {
		t.Error("expected an error for a non-positive tick rate")
	}
}

func TestTickInterval(t *testing.T) {
	cfg := Config{TickHz: 20}
	if got, want := cfg.TickInterval(), 50*time.Millisecond; got != want {
		t.Errorf("TickInterval() = %v, want %v", got, want)
	}
}
