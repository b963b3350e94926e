// internal/config/flags.go
package config

import (
	"flag"
	"fmt"
	"io"
	"math"
	"net"
	"net/url"
	"strconv"
)

// Flags holds command line overrides. Only flags given explicitly override
// values from the config file.
type Flags struct {
	ConfigPath string

	fs  *flag.FlagSet
	set map[string]bool

	source     string
	sourcePort int
	target     string
	targetPort int
	username   string
	password   string
	modules    int
	base       uint
	interval   float64
	device     string
	logLevel   string
	format     string
}

// short -> long
var flagAliases = map[string]string{
	"s":  "source",
	"sp": "source-port",
	"t":  "target",
	"tp": "target-port",
	"U":  "username",
	"P":  "password",
	"n":  "modules",
	"b":  "base-address",
	"i":  "interval",
	"d":  "device",
	"l":  "log-level",
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string, errOut io.Writer) (*Flags, error) {
	f := &Flags{set: make(map[string]bool)}
	fs := flag.NewFlagSet("modbus-mqtt", flag.ContinueOnError)
	fs.SetOutput(errOut)
	f.fs = fs

	fs.StringVar(&f.ConfigPath, "config", "", "path to YAML config file")

	str := func(p *string, long, short, usage string) {
		fs.StringVar(p, long, "", usage)
		fs.StringVar(p, short, "", "alias for -"+long)
	}
	num := func(p *int, long, short, usage string) {
		fs.IntVar(p, long, 0, usage)
		fs.IntVar(p, short, 0, "alias for -"+long)
	}

	str(&f.source, "source", "s", "Modbus source host")
	num(&f.sourcePort, "source-port", "sp", "Modbus source port")
	str(&f.target, "target", "t", "MQTT broker host")
	num(&f.targetPort, "target-port", "tp", "MQTT broker port")
	str(&f.username, "username", "U", "MQTT username")
	str(&f.password, "password", "P", "MQTT password (prompted when a username is set without one)")
	num(&f.modules, "modules", "n", "number of modules to read")
	fs.UintVar(&f.base, "base-address", 0, "first register of module 0")
	fs.UintVar(&f.base, "b", 0, "alias for -base-address")
	fs.Float64Var(&f.interval, "interval", 0, "poll interval in seconds")
	fs.Float64Var(&f.interval, "i", 0, "alias for -interval")
	str(&f.device, "device", "d", "device id used in topics and payloads")
	str(&f.logLevel, "log-level", "l", "debug|info|warning|error|critical")
	fs.StringVar(&f.format, "format", "", "payload format: json|cbor")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(fl *flag.Flag) {
		name := fl.Name
		if long, ok := flagAliases[name]; ok {
			name = long
		}
		f.set[name] = true
	})
	return f, nil
}

// Set reports whether the flag (long name) was given.
func (f *Flags) Set(name string) bool {
	return f.set[name]
}

// Apply overrides cfg with the flags that were given.
func (f *Flags) Apply(cfg *Config) error {
	if f.Set("device") {
		cfg.Device = f.device
	}

	if f.Set("source") || f.Set("source-port") {
		ep, err := overrideHostPort(cfg.Source.Endpoint, DefaultEndpoint, f.source, f.sourcePort)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		cfg.Source.Endpoint = ep
	}
	if f.Set("modules") {
		n := f.modules
		cfg.Source.Modules = &n
	}
	if f.Set("base-address") {
		if f.base > 0xFFFF {
			return fmt.Errorf("base-address %d out of range", f.base)
		}
		cfg.Source.BaseAddress = uint16(f.base)
	}
	if f.Set("interval") {
		ms := math.Round(f.interval * 1000)
		if ms < 1 {
			return fmt.Errorf("interval %gs is below 1ms", f.interval)
		}
		cfg.Poll.IntervalMs = int(ms)
	}

	if f.Set("target") || f.Set("target-port") {
		server := cfg.MQTT.Server
		if server == "" {
			server = DefaultMQTTServer
		}
		u, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("mqtt server %q: %w", server, err)
		}
		host, err := overrideHostPort(u.Host, "localhost:1883", f.target, f.targetPort)
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
		u.Host = host
		cfg.MQTT.Server = u.String()
	}
	if f.Set("username") {
		cfg.MQTT.Username = f.username
	}
	if f.Set("password") {
		cfg.MQTT.Password = f.password
	}

	if f.Set("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if f.Set("format") {
		cfg.Payload.Format = f.format
	}
	return nil
}

// overrideHostPort replaces host and/or port of a host:port pair.
// Empty host and zero port keep the current value.
func overrideHostPort(current, fallback, host string, port int) (string, error) {
	if current == "" {
		current = fallback
	}
	h, p, err := net.SplitHostPort(current)
	if err != nil {
		return "", err
	}
	if host != "" {
		h = host
	}
	if port != 0 {
		if port < 1 || port > 65535 {
			return "", fmt.Errorf("port %d out of range", port)
		}
		p = strconv.Itoa(port)
	}
	return net.JoinHostPort(h, p), nil
}
