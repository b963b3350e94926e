// internal/config/password.go
package config

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PromptPassword asks for the MQTT password on the terminal when a username
// is configured without one. It does nothing when mqtt is not an output.
func PromptPassword(cfg *Config, in *os.File, out io.Writer) error {
	if !needsPassword(cfg) {
		return nil
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("mqtt user %q has no password and stdin is not a terminal", cfg.MQTT.Username)
	}

	fmt.Fprintf(out, "MQTT password for %s: ", cfg.MQTT.Username)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	cfg.MQTT.Password = string(pw)
	return nil
}

func needsPassword(cfg *Config) bool {
	if cfg.MQTT.Username == "" || cfg.MQTT.Password != "" {
		return false
	}
	for _, o := range cfg.Outputs {
		if o == "mqtt" {
			return true
		}
	}
	return false
}
