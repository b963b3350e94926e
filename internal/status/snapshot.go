// internal/status/snapshot.go
package status

// Snapshot is exactly what an output is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Device         string
	Health         Health
	LastError      string
	SecondsInError uint16
}

// Offline is the snapshot registered as the MQTT last will.
func Offline(device string) Snapshot {
	return Snapshot{Device: device, Health: HealthOffline}
}
