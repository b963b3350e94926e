// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tamzrod/modbus-mqtt/internal/layout"
)

type Config struct {
	Device  string        `yaml:"device"`
	Source  SourceConfig  `yaml:"source"`
	Poll    PollConfig    `yaml:"poll"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Outputs []string      `yaml:"outputs"`
	Payload PayloadConfig `yaml:"payload"`
	Layout  *layout.Spec  `yaml:"layout"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Endpoint     string `yaml:"endpoint"` // host:port
	UnitID       uint8  `yaml:"unit_id"`
	TimeoutMs    int    `yaml:"timeout_ms"`
	RegisterType string `yaml:"register_type"` // input (FC4) | holding (FC3)
	BaseAddress  uint16 `yaml:"base_address"`
	Modules      *int   `yaml:"modules"` // nil means DefaultModules
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- MQTT ----

type MQTTConfig struct {
	Server      string `yaml:"server"` // tcp://host:port
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	ClientID    string `yaml:"client_id"`
	Topic       string `yaml:"topic"`
	StatusTopic string `yaml:"status_topic"`
	QoS         *uint8 `yaml:"qos"`
	Retain      bool   `yaml:"retain"`
}

// ---- PAYLOAD ----

type PayloadConfig struct {
	Format string        `yaml:"format"`
	Phases *PhasesConfig `yaml:"phases"` // optional per-phase grouping
}

type PhasesConfig struct {
	Count  int      `yaml:"count"`
	Fields []string `yaml:"fields"`
}

// ---- LOG / METRICS ----

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the HTTP endpoint
}

// Load reads a YAML config file. Unknown keys are rejected.
// An empty path yields an empty config, to be filled by flags and Normalize.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ModuleCount is the number of modules read per cycle.
func (s SourceConfig) ModuleCount() int {
	if s.Modules == nil {
		return DefaultModules
	}
	return *s.Modules
}

// BuildLayout builds the module layout; nil Layout means the default bus layout.
func (c *Config) BuildLayout() (layout.Layout, error) {
	if c.Layout == nil {
		return layout.Default(), nil
	}
	return c.Layout.Build()
}
