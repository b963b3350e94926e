// internal/config/normalize.go
package config

import (
	"fmt"

	"github.com/tamzrod/modbus-mqtt/internal/layout"
)

// Defaults for values left empty by file and flags.
const (
	DefaultDevice       = "plc"
	DefaultEndpoint     = "localhost:502"
	DefaultUnitID       = 1
	DefaultTimeoutMs    = 1000
	DefaultRegisterType = "input"
	DefaultModules      = 1
	DefaultIntervalMs   = 5000
	DefaultMQTTServer   = "tcp://localhost:1883"
	DefaultQoS          = 2
	DefaultLogLevel     = "info"
	DefaultLogFile      = "logs/main.log"
	DefaultLogSizeMB    = 1
	DefaultLogBackups   = 4
)

// Normalize fills defaults. It is allowed to mutate configuration.
// It MUST be called after flags are applied and before Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Device == "" {
		cfg.Device = DefaultDevice
	}

	// ---- source ----
	if cfg.Source.Endpoint == "" {
		cfg.Source.Endpoint = DefaultEndpoint
	}
	if cfg.Source.UnitID == 0 {
		cfg.Source.UnitID = DefaultUnitID
	}
	if cfg.Source.TimeoutMs == 0 {
		cfg.Source.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Source.RegisterType == "" {
		cfg.Source.RegisterType = DefaultRegisterType
	}
	if cfg.Source.Modules == nil {
		n := DefaultModules
		cfg.Source.Modules = &n
	}

	// ---- poll ----
	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}

	// ---- mqtt ----
	if cfg.MQTT.Server == "" {
		cfg.MQTT.Server = DefaultMQTTServer
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "MQTT-" + cfg.Device
	}
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = fmt.Sprintf("modbus-mqtt/%s", cfg.Device)
	}
	if cfg.MQTT.StatusTopic == "" {
		cfg.MQTT.StatusTopic = cfg.MQTT.Topic + "/status"
	}
	if cfg.MQTT.QoS == nil {
		q := uint8(DefaultQoS)
		cfg.MQTT.QoS = &q
	}

	if len(cfg.Outputs) == 0 {
		cfg.Outputs = []string{"mqtt"}
	}
	if cfg.Payload.Format == "" {
		cfg.Payload.Format = "json"
	}

	if cfg.Layout == nil {
		s := layout.DefaultSpec()
		cfg.Layout = &s
	}

	// ---- log ----
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.File == "" {
		cfg.Log.File = DefaultLogFile
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = DefaultLogSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = DefaultLogBackups
	}
}
