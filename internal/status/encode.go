// internal/status/encode.go
package status

import "encoding/json"

type wire struct {
	Device         string `json:"device"`
	Health         string `json:"health"`
	Code           uint16 `json:"code"`
	LastError      string `json:"last_error,omitempty"`
	SecondsInError uint16 `json:"seconds_in_error"`
}

// Encode converts a Snapshot into the status topic payload.
// No IO. No side effects.
func Encode(s Snapshot) ([]byte, error) {
	return json.Marshal(wire{
		Device:         s.Device,
		Health:         s.Health.String(),
		Code:           uint16(s.Health),
		LastError:      s.LastError,
		SecondsInError: s.SecondsInError,
	})
}
