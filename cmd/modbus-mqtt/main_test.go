// cmd/modbus-mqtt/main_test.go
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-mqtt/internal/config"
	"github.com/tamzrod/modbus-mqtt/internal/payload"
)

func TestBanner(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{Endpoint: "10.0.0.5:502", BaseAddress: 100}}
	n := 3
	cfg.Source.Modules = &n
	config.Normalize(cfg)

	var buf bytes.Buffer
	banner(&buf, cfg)
	out := buf.String()

	for _, want := range []string{
		"=== Modbus MQTT Adapter ===",
		"Data Source  : 10.0.0.5:502 (input registers, unit 1)",
		"MQTT Broker  : tcp://localhost:1883",
		"MQTT Topic   : modbus-mqtt/plc",
		"# of Modules : 3",
		"Base Address : 100",
		"Poll Interval: 5s",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestBuildOutputs_Console(t *testing.T) {
	cfg := &config.Config{Outputs: []string{"console"}}
	config.Normalize(cfg)

	outs, err := buildOutputs(cfg, payload.FormatJSON, zerolog.Nop())
	if err != nil {
		t.Fatalf("buildOutputs: %v", err)
	}
	if len(outs) != 1 || outs[0].Name() != "console" {
		t.Fatalf("unexpected outputs %v", outs)
	}

	cfg.Outputs = []string{"pager"}
	if _, err := buildOutputs(cfg, payload.FormatJSON, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown output")
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	if err := run([]string{"-interval", "-1"}); err == nil {
		t.Fatalf("expected error")
	}
	if err := run([]string{"-config", "/nonexistent/config.yaml"}); err == nil {
		t.Fatalf("expected error")
	}
}
