// cmd/modbus-mqtt/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-mqtt/internal/config"
	"github.com/tamzrod/modbus-mqtt/internal/logging"
	"github.com/tamzrod/modbus-mqtt/internal/metrics"
	"github.com/tamzrod/modbus-mqtt/internal/output"
	"github.com/tamzrod/modbus-mqtt/internal/output/console"
	mqttout "github.com/tamzrod/modbus-mqtt/internal/output/mqtt"
	"github.com/tamzrod/modbus-mqtt/internal/payload"
	"github.com/tamzrod/modbus-mqtt/internal/pipeline"
	"github.com/tamzrod/modbus-mqtt/internal/poller"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "modbus-mqtt: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	// --------------------
	// Load + validate config
	// --------------------

	flags, err := config.ParseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := flags.Apply(cfg); err != nil {
		return fmt.Errorf("config flags: %w", err)
	}
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := config.PromptPassword(cfg, os.Stdin, os.Stdout); err != nil {
		return err
	}

	lay, err := cfg.BuildLayout()
	if err != nil {
		return err
	}
	format, err := payload.ParseFormat(cfg.Payload.Format)
	if err != nil {
		return err
	}

	banner(os.Stdout, cfg)

	// --------------------
	// Logging
	// --------------------

	logger, closeLog, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	defer closeLog()
	logger = logger.With().Str("device", cfg.Device).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Outputs
	// --------------------

	outs, err := buildOutputs(cfg, format, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, o := range outs {
			if err := o.Close(); err != nil {
				logger.Warn().Err(err).Str("output", o.Name()).Msg("output close failed")
			}
		}
	}()

	// --------------------
	// Metrics
	// --------------------

	var m *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New(cfg.Device)
		srv := serveMetrics(cfg.Metrics.Listen, m, logging.Component(logger, "metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// --------------------
	// Poller + pipeline
	// --------------------

	p, err := poller.Build(cfg, lay.Size())
	if err != nil {
		return fmt.Errorf("poller build failed: %w", err)
	}

	pipeCfg := pipeline.Config{
		Device:  cfg.Device,
		Layout:  lay,
		Modules: cfg.Source.ModuleCount(),
	}
	if ph := cfg.Payload.Phases; ph != nil {
		pipeCfg.PhaseFields = ph.Fields
		pipeCfg.PhaseCount = ph.Count
	}
	pipe := pipeline.New(pipeCfg, outs, m, logging.Component(logger, "pipeline"))

	// ---- channel between poller and pipeline ----
	results := make(chan poller.PollResult)

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		p.Run(ctx, results)
	}()

	logger.Info().
		Str("source", cfg.Source.Endpoint).
		Int("modules", cfg.Source.ModuleCount()).
		Int("interval_ms", cfg.Poll.IntervalMs).
		Msg("bridge started")

	pipe.Run(ctx, results)
	<-pollDone

	logger.Info().Msg("shutting down")
	return nil
}

func buildOutputs(cfg *config.Config, format payload.Format, logger zerolog.Logger) ([]output.Output, error) {
	outs := make([]output.Output, 0, len(cfg.Outputs))
	for _, name := range cfg.Outputs {
		switch name {
		case "mqtt":
			o, err := mqttout.NewMQTT(mqttout.Config{
				Server:      cfg.MQTT.Server,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				Topic:       cfg.MQTT.Topic,
				StatusTopic: cfg.MQTT.StatusTopic,
				QoS:         *cfg.MQTT.QoS,
				Retain:      cfg.MQTT.Retain,
				Format:      format,
				Device:      cfg.Device,
			}, logging.Component(logger, "mqtt"))
			if err != nil {
				for _, prev := range outs {
					_ = prev.Close()
				}
				return nil, err
			}
			outs = append(outs, o)
		case "console":
			outs = append(outs, console.NewConsole(os.Stdout))
		default:
			return nil, fmt.Errorf("unknown output %q", name)
		}
	}
	return outs, nil
}

func serveMetrics(addr string, m *metrics.Metrics, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("listen", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return srv
}

func banner(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "=== Modbus MQTT Adapter ===")
	fmt.Fprintf(w, "Data Source  : %s (%s registers, unit %d)\n", cfg.Source.Endpoint, cfg.Source.RegisterType, cfg.Source.UnitID)
	for _, o := range cfg.Outputs {
		if o == "mqtt" {
			fmt.Fprintf(w, "MQTT Broker  : %s\n", cfg.MQTT.Server)
			fmt.Fprintf(w, "MQTT Topic   : %s\n", cfg.MQTT.Topic)
		}
	}
	fmt.Fprintf(w, "# of Modules : %d\n", cfg.Source.ModuleCount())
	fmt.Fprintf(w, "Base Address : %d\n", cfg.Source.BaseAddress)
	fmt.Fprintf(w, "Poll Interval: %gs\n", float64(cfg.Poll.IntervalMs)/1000)
	fmt.Fprintln(w)
}
