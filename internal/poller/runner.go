// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run polls once immediately, then on every tick, and emits PollResult on out.
// One goroutine per device. No overlap: a slow cycle delays the next tick.
// Run closes the client when ctx is done.
func (p *Poller) Run(ctx context.Context, out chan<- PollResult) {
	defer p.Close()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case out <- p.PollOnce():
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
