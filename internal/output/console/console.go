// internal/output/console/console.go
package console

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/tamzrod/modbus-mqtt/internal/decode"
	"github.com/tamzrod/modbus-mqtt/internal/payload"
	"github.com/tamzrod/modbus-mqtt/internal/status"
)

// ConsoleOutput prints one line per module and one per status change.
// Used for dry runs without a broker.
type ConsoleOutput struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *ConsoleOutput { return &ConsoleOutput{out: out} }

func (c *ConsoleOutput) Name() string { return "console" }

func (c *ConsoleOutput) Publish(ds payload.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Unix(ds.Timestamp, 0).UTC().Format(time.RFC3339)
	if len(ds.Results) == 0 {
		_, err := fmt.Fprintf(c.out, "%s device=%s modules=0\n", ts, ds.Device)
		return err
	}
	for _, m := range ds.Results {
		if _, err := fmt.Fprintf(c.out, "%s device=%s module=%d", ts, ds.Device, m.Index); err != nil {
			return err
		}
		for _, f := range m.Fields {
			if _, err := fmt.Fprintf(c.out, " %s=%s", f.Name, f.Value); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(c.out); err != nil {
			return err
		}
	}
	for _, p := range ds.Phases {
		if _, err := fmt.Fprintf(c.out, "%s device=%s module=%d phase=%d", ts, ds.Device, p.Module, p.Phase); err != nil {
			return err
		}
		for _, name := range sortedKeys(p.Values) {
			if _, err := fmt.Fprintf(c.out, " %s=%s", name, p.Values[name]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(c.out); err != nil {
			return err
		}
	}
	return nil
}

func (c *ConsoleOutput) PublishStatus(s status.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.out, "status device=%s health=%s seconds_in_error=%d", s.Device, s.Health, s.SecondsInError)
	if err != nil {
		return err
	}
	if s.LastError != "" {
		_, err = fmt.Fprintf(c.out, " last_error=%q", s.LastError)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(c.out)
	return err
}

func (c *ConsoleOutput) Close() error { return nil }

func sortedKeys(m map[string]decode.Number) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
