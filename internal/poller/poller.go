// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// MaxReadQuantity is the register limit of one read request PDU.
const MaxReadQuantity = 125

// Client abstracts Modbus operations needed by the poller.
// The poller depends on geometry only.
type Client interface {
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(addr, qty uint16) ([]uint16, error)   // FC 4
}

// Factory opens a new client. One attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Device   string
	Interval time.Duration
	Register RegisterType
	Address  uint16
	Quantity int // total registers per cycle
}

// Poller is a dumb, clock-driven reader.
// Not safe for concurrent PollOnce calls; Run owns it.
type Poller struct {
	cfg     Config
	reads   []ReadBlock
	client  Client
	factory Factory
	now     func() time.Time
}

// New creates a poller with immutable config.
// client may be nil when factory is set; it is then opened on the first cycle.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.Device == "" {
		return nil, errors.New("poller: device required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if cfg.Register != InputRegisters && cfg.Register != HoldingRegisters {
		return nil, fmt.Errorf("poller: unsupported register type %d", uint8(cfg.Register))
	}
	if cfg.Quantity < 0 || int(cfg.Address)+cfg.Quantity > 1<<16 {
		return nil, fmt.Errorf("poller: %d registers from %d exceed the address space", cfg.Quantity, cfg.Address)
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{
		cfg:     cfg,
		reads:   Chunks(cfg.Address, cfg.Quantity, MaxReadQuantity),
		client:  client,
		factory: factory,
		now:     time.Now,
	}, nil
}

// Chunks splits qty registers from addr into reads of at most limit registers.
func Chunks(addr uint16, qty, limit int) []ReadBlock {
	var out []ReadBlock
	for done := 0; done < qty; done += limit {
		n := limit
		if qty-done < n {
			n = qty - done
		}
		out = append(out, ReadBlock{
			Address:  uint16(int(addr) + done),
			Quantity: uint16(n),
		})
	}
	return out
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle and drops the client,
// so the next cycle reconnects through the factory.
func (p *Poller) PollOnce() (res PollResult) {
	res.Device = p.cfg.Device

	start := p.now()
	defer func() {
		end := p.now()
		res.Took = end.Sub(start)
		res.At = start.Add(res.Took / 2)
	}()

	regs := make([]uint16, 0, p.cfg.Quantity)
	if len(p.reads) == 0 {
		res.Registers = regs
		return res
	}

	if p.client == nil {
		c, err := p.factory()
		if err != nil {
			res.Err = fmt.Errorf("connect: %w", err)
			return res
		}
		p.client = c
	}

	for _, rb := range p.reads {
		var (
			got []uint16
			err error
		)
		switch p.cfg.Register {
		case HoldingRegisters:
			got, err = p.client.ReadHoldingRegisters(rb.Address, rb.Quantity)
		default:
			got, err = p.client.ReadInputRegisters(rb.Address, rb.Quantity)
		}
		if err == nil && len(got) != int(rb.Quantity) {
			err = fmt.Errorf("short read: got %d registers, want %d", len(got), rb.Quantity)
		}
		if err != nil {
			res.Err = fmt.Errorf("read %s %d+%d: %w", p.cfg.Register, rb.Address, rb.Quantity, err)
			p.drop()
			return res
		}
		regs = append(regs, got...)
	}

	res.Registers = regs
	return res
}

// drop discards the current client. Without a factory the client is kept,
// there is nothing to replace it with.
func (p *Poller) drop() {
	if p.factory == nil {
		return
	}
	if c, ok := p.client.(io.Closer); ok {
		_ = c.Close()
	}
	p.client = nil
}

// Close releases the current client, if any.
func (p *Poller) Close() error {
	c, ok := p.client.(io.Closer)
	p.client = nil
	if !ok {
		return nil
	}
	return c.Close()
}
