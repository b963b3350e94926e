// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-mqtt/internal/decode"
	"github.com/tamzrod/modbus-mqtt/internal/layout"
	"github.com/tamzrod/modbus-mqtt/internal/metrics"
	"github.com/tamzrod/modbus-mqtt/internal/output"
	"github.com/tamzrod/modbus-mqtt/internal/payload"
	"github.com/tamzrod/modbus-mqtt/internal/phases"
	"github.com/tamzrod/modbus-mqtt/internal/poller"
	"github.com/tamzrod/modbus-mqtt/internal/status"
)

// Config is what the pipeline needs to turn raw registers into datasets.
type Config struct {
	Device  string
	Layout  layout.Layout
	Modules int

	// PhaseFields, when set, adds per-phase groups of PhaseCount to every dataset.
	PhaseFields []string
	PhaseCount  int
}

// Pipeline decodes poll results, publishes them and owns the device status.
// Runner-owned state: Handle, Tick and Start must be called from one goroutine.
type Pipeline struct {
	cfg     Config
	outputs []output.Output
	tracker *status.Tracker
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New builds a pipeline. m may be nil.
func New(cfg Config, outs []output.Output, m *metrics.Metrics, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		outputs: outs,
		tracker: status.NewTracker(cfg.Device),
		metrics: m,
		log:     log,
	}
}

// Status returns the current device status.
func (p *Pipeline) Status() status.Snapshot {
	return p.tracker.Snapshot()
}

// Start publishes the boot status (unknown) to every output.
func (p *Pipeline) Start() {
	p.metrics.SetHealth(p.tracker.Snapshot().Health)
	p.publishStatus()
}

// Handle processes one poll cycle. The device status follows read and decode
// outcomes; output failures are logged and counted but leave the status alone.
// The returned error joins everything that went wrong in the cycle.
func (p *Pipeline) Handle(res poller.PollResult) error {
	if res.Err != nil {
		p.metrics.ObservePoll(metrics.ResultReadError, res.Took)
		p.log.Warn().Err(res.Err).Msg("modbus read failed")
		p.observe(res.Err)
		return res.Err
	}

	mods, err := decode.Slice(p.cfg.Layout, res.Registers, p.cfg.Modules)
	if err != nil {
		err = fmt.Errorf("decode: %w", err)
		p.metrics.ObservePoll(metrics.ResultDecodeError, res.Took)
		p.log.Error().Err(err).Int("registers", len(res.Registers)).Msg("decode failed")
		p.observe(err)
		return err
	}

	p.metrics.ObservePoll(metrics.ResultOK, res.Took)
	p.metrics.SetModules(mods)
	p.observe(nil)

	ds := payload.New(p.cfg.Device, res.At, mods)

	var errs []error
	if len(p.cfg.PhaseFields) > 0 {
		ps, err := phases.GroupAll(mods, p.cfg.PhaseFields, p.cfg.PhaseCount)
		if err != nil {
			p.log.Warn().Err(err).Msg("phase grouping failed, publishing without phases")
			errs = append(errs, err)
		} else {
			ds.Phases = ps
		}
	}

	for _, o := range p.outputs {
		err := o.Publish(ds)
		p.metrics.ObservePublish(o.Name(), err)
		if err != nil {
			p.log.Error().Err(err).Str("output", o.Name()).Msg("publish failed")
			errs = append(errs, fmt.Errorf("%s: %w", o.Name(), err))
			continue
		}
		p.log.Debug().Str("output", o.Name()).Int("modules", len(mods)).Msg("published")
	}
	return errors.Join(errs...)
}

// Tick advances seconds-in-error; call it at 1 Hz.
func (p *Pipeline) Tick() {
	if p.tracker.Tick() {
		p.publishStatus()
	}
}

// Run consumes poll results until ctx is done or in is closed,
// driving the 1 Hz status ticker in between.
func (p *Pipeline) Run(ctx context.Context, in <-chan poller.PollResult) {
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	p.Start()

	for {
		select {
		case <-ctx.Done():
			return

		case res, ok := <-in:
			if !ok {
				return
			}
			_ = p.Handle(res)

		case <-secTicker.C:
			p.Tick()
		}
	}
}

func (p *Pipeline) observe(err error) {
	if !p.tracker.Observe(err) {
		return
	}
	snap := p.tracker.Snapshot()
	p.metrics.SetHealth(snap.Health)
	if err == nil {
		p.log.Info().Msg("device healthy")
	}
	p.publishStatus()
}

func (p *Pipeline) publishStatus() {
	snap := p.tracker.Snapshot()
	for _, o := range p.outputs {
		if err := o.PublishStatus(snap); err != nil {
			p.log.Warn().Err(err).Str("output", o.Name()).Msg("status publish failed")
		}
	}
}
