// internal/config/validate.go
package config

import (
	"fmt"
	"net"
	"net/url"

	"github.com/tamzrod/modbus-mqtt/internal/logging"
	"github.com/tamzrod/modbus-mqtt/internal/payload"
)

// addressSpace is the number of registers addressable by one unit.
const addressSpace = 1 << 16

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.Device == "" {
		return fmt.Errorf("device must be set")
	}

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	if _, _, err := net.SplitHostPort(cfg.Source.Endpoint); err != nil {
		return fmt.Errorf("source.endpoint %q: %w", cfg.Source.Endpoint, err)
	}
	switch cfg.Source.RegisterType {
	case "input", "holding":
	default:
		return fmt.Errorf("source.register_type must be input or holding, got %q", cfg.Source.RegisterType)
	}
	if cfg.Source.TimeoutMs < 0 {
		return fmt.Errorf("source.timeout_ms must be >= 0")
	}
	if cfg.Source.ModuleCount() < 0 {
		return fmt.Errorf("source.modules must be >= 0")
	}
	if cfg.Poll.IntervalMs <= 0 {
		return fmt.Errorf("poll.interval_ms must be > 0")
	}

	// ------------------------------------------------------------
	// LAYOUT
	// ------------------------------------------------------------

	l, err := cfg.BuildLayout()
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if _, ok := l.Lookup("index"); ok {
		return fmt.Errorf("layout: field name %q is reserved", "index")
	}

	end := int(cfg.Source.BaseAddress) + cfg.Source.ModuleCount()*l.Size()
	if end > addressSpace {
		return fmt.Errorf(
			"source: %d modules of %d registers from %d exceed the register address space",
			cfg.Source.ModuleCount(),
			l.Size(),
			cfg.Source.BaseAddress,
		)
	}

	// ------------------------------------------------------------
	// PAYLOAD
	// ------------------------------------------------------------

	if _, err := payload.ParseFormat(cfg.Payload.Format); err != nil {
		return err
	}
	if p := cfg.Payload.Phases; p != nil {
		if p.Count <= 0 {
			return fmt.Errorf("payload.phases.count must be > 0")
		}
		if len(p.Fields) == 0 {
			return fmt.Errorf("payload.phases.fields must not be empty")
		}
		for _, name := range p.Fields {
			f, ok := l.Lookup(name)
			if !ok {
				return fmt.Errorf("payload.phases: unknown field %q", name)
			}
			if f.Count != p.Count {
				return fmt.Errorf(
					"payload.phases: field %q repeats %d times, want %d",
					name,
					f.Count,
					p.Count,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// OUTPUTS
	// ------------------------------------------------------------

	if len(cfg.Outputs) == 0 {
		return fmt.Errorf("at least one output must be configured")
	}
	seen := make(map[string]bool, len(cfg.Outputs))
	for _, o := range cfg.Outputs {
		switch o {
		case "mqtt", "console":
		default:
			return fmt.Errorf("unknown output %q", o)
		}
		if seen[o] {
			return fmt.Errorf("output %q listed twice", o)
		}
		seen[o] = true
	}

	if seen["mqtt"] {
		u, err := url.Parse(cfg.MQTT.Server)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("mqtt.server %q must be a URL like tcp://host:1883", cfg.MQTT.Server)
		}
		if cfg.MQTT.Topic == "" {
			return fmt.Errorf("mqtt.topic must be set")
		}
		if cfg.MQTT.QoS != nil && *cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
		}
		if cfg.MQTT.Password != "" && cfg.MQTT.Username == "" {
			return fmt.Errorf("mqtt.password set without mqtt.username")
		}
	}

	// ------------------------------------------------------------
	// LOG / METRICS
	// ------------------------------------------------------------

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Log.MaxSizeMB < 0 || cfg.Log.MaxBackups < 0 {
		return fmt.Errorf("log rotation values must be >= 0")
	}
	if cfg.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen %q: %w", cfg.Metrics.Listen, err)
		}
	}

	return nil
}
