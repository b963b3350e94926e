// internal/output/console/console_test.go
package console

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/modbus-mqtt/internal/decode"
	"github.com/tamzrod/modbus-mqtt/internal/payload"
	"github.com/tamzrod/modbus-mqtt/internal/phases"
	"github.com/tamzrod/modbus-mqtt/internal/status"
)

func TestConsolePublish(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	ts := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)
	ds := payload.New("plc", ts, []decode.Module{
		{Index: 1, Fields: []decode.Field{
			{Name: "busIndex", Value: decode.Scalar(decode.Int(7))},
			{Name: "voltage", Value: decode.List(decode.Float(230.03), decode.Float(229.5))},
		}},
	})
	ds.Phases = []phases.Phase{
		{Module: 1, Phase: 2, Values: map[string]decode.Number{"voltage": decode.Float(229.5), "current": decode.Float(1.5)}},
	}

	if err := c.Publish(ds); err != nil {
		t.Fatalf("publish: %v", err)
	}
	want := "2025-09-19T14:41:54Z device=plc module=1 busIndex=7 voltage=[230.03 229.5]\n" +
		"2025-09-19T14:41:54Z device=plc module=1 phase=2 current=1.5 voltage=229.5\n"
	if buf.String() != want {
		t.Fatalf("console output mismatch:\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestConsolePublish_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	if err := c.Publish(payload.New("plc", time.Unix(0, 0), nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	want := "1970-01-01T00:00:00Z device=plc modules=0\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestConsolePublishStatus(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	s := status.Snapshot{Device: "plc", Health: status.HealthError, LastError: "timeout", SecondsInError: 3}
	if err := c.PublishStatus(s); err != nil {
		t.Fatalf("status: %v", err)
	}
	want := "status device=plc health=error seconds_in_error=3 last_error=\"timeout\"\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestConsolePublish_WriteError(t *testing.T) {
	c := NewConsole(failWriter{})
	if err := c.Publish(payload.New("plc", time.Unix(0, 0), nil)); err == nil {
		t.Fatalf("expected write error")
	}
	if c.Name() != "console" {
		t.Fatalf("name=%q", c.Name())
	}
}
