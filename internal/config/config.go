package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version int `yaml:"version"`
	Server  struct {
		Port      int    `yaml:"port"`
		GraphPath string `yaml:"graph_path"`
	} `yaml:"server"`
	MQTT struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
		Topic   string `yaml:"topic"`
	} `yaml:"mqtt"`
	Activity struct {
		WindowMS int `yaml:"window_ms"`
		SweepMS  int `yaml:"sweep_ms"`
	} `yaml:"activity"`
}

// Port returns the configured HTTP port, defaulting to 8080 if not set.
func (c *Config) Port() int {
	if c.Server.Port == 0 {
		return 8080
	}
	return c.Server.Port
}

// GraphPath returns the workflow graph file path, with a default.
func (c *Config) GraphPath() string {
	if c.Server.GraphPath == "" {
		return "config/graph.json"
	}
	return c.Server.GraphPath
}

// Topic returns the MQTT progress topic filter, with a default.
func (c *Config) Topic() string {
	if c.MQTT.Topic == "" {
		return "agents/+/progress"
	}
	return c.MQTT.Topic
}

// ActivityWindow returns the highlight decay window.
// Zero means "use the tracker default".
func (c *Config) ActivityWindow() time.Duration {
	if c.Activity.WindowMS <= 0 {
		return 0
	}
	return time.Duration(c.Activity.WindowMS) * time.Millisecond
}

// SweepInterval returns the decay sweep interval.
// Zero means "use the tracker default".
func (c *Config) SweepInterval() time.Duration {
	if c.Activity.SweepMS <= 0 {
		return 0
	}
	return time.Duration(c.Activity.SweepMS) * time.Millisecond
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	if cfg.Version != 1 {
		return nil, fmt.Errorf("unsupported flowboard.yaml version: %d", cfg.Version)
	}

	return &cfg, nil
}
