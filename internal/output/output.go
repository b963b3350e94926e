// internal/output/output.go
package output

import (
	"github.com/tamzrod/modbus-mqtt/internal/payload"
	"github.com/tamzrod/modbus-mqtt/internal/status"
)

// Output is the delivery-only contract for decoded datasets and device status.
// It writes what it is given. No logic, no interpretation.
type Output interface {
	Name() string
	Publish(ds payload.Dataset) error
	PublishStatus(s status.Snapshot) error
	Close() error
}

// helper constructors are in subpackages
