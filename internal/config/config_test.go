package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "bridge:\n  port: 3300\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Bridge.Role != RoleListen {
		t.Errorf("default role = %q, want %q", cfg.Bridge.Role, RoleListen)
	}
	if cfg.Bridge.Path != "/wpilibws" {
		t.Errorf("default path = %q", cfg.Bridge.Path)
	}
	if cfg.Engine.PollInterval != 50*time.Millisecond {
		t.Errorf("default poll interval = %v, want 50ms", cfg.Engine.PollInterval)
	}
	if cfg.Engine.NominalVoltage != 12.0 {
		t.Errorf("default nominal voltage = %v, want 12", cfg.Engine.NominalVoltage)
	}
	if cfg.Engine.DSPacketTimeout != time.Second {
		t.Errorf("default ds packet timeout = %v, want 1s", cfg.Engine.DSPacketTimeout)
	}
	if cfg.API.Enabled {
		t.Error("API should default to disabled")
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
bridge:
  role: connect
  host: sim.local
  port: 3400
engine:
  poll_interval: 20ms
api:
  enabled: true
  port: 9090
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Bridge.Role != RoleConnect || cfg.Bridge.Host != "sim.local" || cfg.Bridge.Port != 3400 {
		t.Errorf("bridge config = %+v", cfg.Bridge)
	}
	if cfg.Engine.PollInterval != 20*time.Millisecond {
		t.Errorf("poll interval = %v, want 20ms", cfg.Engine.PollInterval)
	}
	if !cfg.API.Enabled || cfg.API.Port != 9090 {
		t.Errorf("api config = %+v", cfg.API)
	}
}

func TestLoadRejectsBadRole(t *testing.T) {
	path := writeConfig(t, "bridge:\n  role: proxy\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted invalid role")
	}
}
