// internal/status/tracker.go
package status

// Tracker owns the status of one device across poll cycles.
// Not safe for concurrent use: the pipeline goroutine owns it.
type Tracker struct {
	snap Snapshot
}

func NewTracker(device string) *Tracker {
	return &Tracker{snap: Snapshot{Device: device, Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	return t.snap
}

// Observe records the outcome of one cycle and reports whether the snapshot changed.
func (t *Tracker) Observe(err error) bool {
	changed := false

	if err == nil {
		// Recovery / OK
		if t.snap.Health != HealthOK {
			t.snap.Health = HealthOK
			changed = true
		}
		if t.snap.LastError != "" {
			t.snap.LastError = ""
			changed = true
		}
		if t.snap.SecondsInError != 0 {
			t.snap.SecondsInError = 0
			changed = true
		}
		return changed
	}

	if t.snap.Health != HealthError {
		t.snap.Health = HealthError
		changed = true
	}
	if msg := err.Error(); t.snap.LastError != msg {
		t.snap.LastError = msg
		changed = true
	}
	// seconds_in_error increments on Tick only
	return changed
}

// Tick advances the seconds-in-error counter; call it at 1 Hz.
// It reports whether the snapshot changed. The counter never wraps.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK || t.snap.Health == HealthUnknown {
		return false
	}
	if t.snap.SecondsInError >= SecondsInErrorMax {
		return false
	}
	t.snap.SecondsInError++
	return true
}
