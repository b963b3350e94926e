// internal/status/constants.go
package status

// ---- HEALTH CODES ----

// Health is the device-level state published on the status topic.
type Health uint16

// HealthUnknown represents the boot state before the first poll.
const HealthUnknown Health = 0

// HealthOK represents a device that was polled, decoded and published.
const HealthOK Health = 1

// HealthError represents a failed read or decode. Publish failures leave health alone.
const HealthError Health = 2

// HealthOffline is announced by the broker (last will) when the bridge disappears.
const HealthOffline Health = 3

// ---- LIMITS ----

// SecondsInErrorMax is where the seconds-in-error counter saturates.
const SecondsInErrorMax = 65535

func (h Health) String() string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthOffline:
		return "offline"
	}
	return "invalid"
}
