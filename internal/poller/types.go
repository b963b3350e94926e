// internal/poller/types.go
package poller

import (
	"fmt"
	"strings"
	"time"
)

// RegisterType selects the Modbus read function.
type RegisterType uint8

const (
	InputRegisters   RegisterType = 4 // FC 4
	HoldingRegisters RegisterType = 3 // FC 3
)

func (r RegisterType) String() string {
	switch r {
	case InputRegisters:
		return "input"
	case HoldingRegisters:
		return "holding"
	}
	return fmt.Sprintf("fc%d", uint8(r))
}

func ParseRegisterType(s string) (RegisterType, error) {
	switch strings.ToLower(s) {
	case "input", "":
		return InputRegisters, nil
	case "holding":
		return HoldingRegisters, nil
	}
	return 0, fmt.Errorf("poller: unknown register type %q", s)
}

// ReadBlock describes one Modbus read geometry.
// Geometry only: no semantics.
type ReadBlock struct {
	Address  uint16
	Quantity uint16
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Device string

	// At is the midpoint between the first request and the last response.
	At time.Time
	// Took is the total read duration.
	Took time.Duration

	// Registers holds every register of the cycle in address order.
	Registers []uint16
	Err       error // non-nil means the poll cycle failed
}
