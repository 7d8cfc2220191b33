package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version: 1
server:
  port: 9090
  graph_path: /tmp/graph.json
mqtt:
  enabled: true
  url: tcp://broker:1883
  topic: agents/+/progress
activity:
  window_ms: 2000
  sweep_ms: 500
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port() != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port())
	}
	if cfg.GraphPath() != "/tmp/graph.json" {
		t.Errorf("unexpected graph path: %s", cfg.GraphPath())
	}
	if !cfg.MQTT.Enabled {
		t.Error("expected mqtt enabled")
	}
	if cfg.ActivityWindow() != 2*time.Second {
		t.Errorf("expected 2s window, got %s", cfg.ActivityWindow())
	}
	if cfg.SweepInterval() != 500*time.Millisecond {
		t.Errorf("expected 500ms sweep, got %s", cfg.SweepInterval())
	}
}

func TestDefaults(t *testing.T) {
	path := writeConfig(t, "version: 1\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Port() != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Port())
	}
	if cfg.GraphPath() != "config/graph.json" {
		t.Errorf("unexpected default graph path: %s", cfg.GraphPath())
	}
	if cfg.Topic() != "agents/+/progress" {
		t.Errorf("unexpected default topic: %s", cfg.Topic())
	}
	if cfg.ActivityWindow() != 0 {
		t.Errorf("expected zero window (tracker default), got %s", cfg.ActivityWindow())
	}
}

func TestLoadRejectsBadVersion(t *testing.T) {
	path := writeConfig(t, "version: 7\n")

	if _, err := Load(path); err == nil {
		t.Error("expected version error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}
