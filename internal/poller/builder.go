// internal/poller/builder.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-mqtt/internal/config"
	pmodbus "github.com/tamzrod/modbus-mqtt/internal/poller/modbus"
)

// Build constructs a Poller and wires Modbus client lifecycle.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future tick.
// The first connection is opened by the first cycle, so an unreachable device
// is reported as a failed poll instead of stopping startup.
func Build(c *config.Config, moduleSize int) (*Poller, error) {
	reg, err := ParseRegisterType(c.Source.RegisterType)
	if err != nil {
		return nil, err
	}

	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		return pmodbus.New(pmodbus.Config{
			Endpoint: c.Source.Endpoint,
			UnitID:   c.Source.UnitID,
			Timeout:  time.Duration(c.Source.TimeoutMs) * time.Millisecond,
		})
	}

	return New(
		Config{
			Device:   c.Device,
			Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond,
			Register: reg,
			Address:  c.Source.BaseAddress,
			Quantity: c.Source.ModuleCount() * moduleSize,
		},
		nil,
		factory,
	)
}
