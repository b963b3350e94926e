// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClient struct {
	failAt int // fail the n-th read (1-based); 0 never fails
	reads  []ReadBlock
	fcs    []RegisterType
	closed bool
}

func (f *fakeClient) read(fc RegisterType, addr, qty uint16) ([]uint16, error) {
	f.reads = append(f.reads, ReadBlock{Address: addr, Quantity: qty})
	f.fcs = append(f.fcs, fc)
	if f.failAt == len(f.reads) {
		return nil, errors.New("boom")
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = addr + uint16(i) // register value = address
	}
	return out, nil
}

func (f *fakeClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	return f.read(HoldingRegisters, addr, qty)
}

func (f *fakeClient) ReadInputRegisters(addr, qty uint16) ([]uint16, error) {
	return f.read(InputRegisters, addr, qty)
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func cfg(qty int) Config {
	return Config{
		Device:   "plc",
		Interval: time.Second,
		Register: InputRegisters,
		Address:  100,
		Quantity: qty,
	}
}

func TestChunks(t *testing.T) {
	got := Chunks(10, 300, 125)
	want := []ReadBlock{{10, 125}, {135, 125}, {260, 50}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chunk %d: got %v, want %v", i, got[i], want[i])
		}
	}

	if n := len(Chunks(0, 0, 125)); n != 0 {
		t.Fatalf("expected no chunks, got %d", n)
	}
	if got := Chunks(0, 125, 125); len(got) != 1 || got[0].Quantity != 125 {
		t.Fatalf("exact fit: got %v", got)
	}
}

func TestPollOnce_Success(t *testing.T) {
	fc := &fakeClient{}
	p, err := New(cfg(48), fc, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if res.Device != "plc" {
		t.Fatalf("device=%q", res.Device)
	}
	if len(res.Registers) != 48 {
		t.Fatalf("expected 48 registers, got %d", len(res.Registers))
	}
	if res.Registers[0] != 100 || res.Registers[47] != 147 {
		t.Fatalf("unexpected registers %v", res.Registers)
	}
	if fc.fcs[0] != InputRegisters {
		t.Fatalf("expected input registers read")
	}
}

func TestPollOnce_ChunkedInOrder(t *testing.T) {
	fc := &fakeClient{}
	p, err := New(cfg(24*10), fc, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err != nil {
		t.Fatalf("PollOnce err=%v", res.Err)
	}
	if len(fc.reads) != 2 {
		t.Fatalf("expected 2 reads, got %d", len(fc.reads))
	}
	for i, r := range res.Registers {
		if r != uint16(100+i) {
			t.Fatalf("register %d = %d, want %d", i, r, 100+i)
		}
	}
}

func TestPollOnce_Holding(t *testing.T) {
	c := cfg(4)
	c.Register = HoldingRegisters
	fc := &fakeClient{}
	p, _ := New(c, fc, nil)
	p.PollOnce()
	if fc.fcs[0] != HoldingRegisters {
		t.Fatalf("expected holding registers read")
	}
}

func TestPollOnce_ZeroQuantity(t *testing.T) {
	p, err := New(cfg(0), nil, func() (Client, error) {
		t.Fatalf("factory must not be called")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err != nil || res.Registers == nil || len(res.Registers) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPollOnce_Failure(t *testing.T) {
	fc := &fakeClient{failAt: 2}
	p, err := New(cfg(200), fc, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	res := p.PollOnce()
	if res.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if res.Registers != nil {
		t.Fatalf("failed cycle must not carry registers")
	}
}

func TestPollOnce_ReconnectAfterFailure(t *testing.T) {
	first := &fakeClient{failAt: 1}
	second := &fakeClient{}
	opened := 0
	factory := func() (Client, error) {
		opened++
		if opened == 1 {
			return first, nil
		}
		return second, nil
	}

	p, err := New(cfg(10), nil, factory)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if res := p.PollOnce(); res.Err == nil {
		t.Fatalf("expected first cycle to fail")
	}
	if !first.closed {
		t.Fatalf("failed client must be closed")
	}

	if res := p.PollOnce(); res.Err != nil {
		t.Fatalf("second cycle err=%v", res.Err)
	}
	if opened != 2 {
		t.Fatalf("expected 2 connects, got %d", opened)
	}
}

func TestPollOnce_ConnectFailure(t *testing.T) {
	p, _ := New(cfg(10), nil, func() (Client, error) {
		return nil, errors.New("refused")
	})
	res := p.PollOnce()
	if res.Err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestPollOnce_Midpoint(t *testing.T) {
	p, _ := New(cfg(2), &fakeClient{}, nil)
	base := time.Unix(1000, 0)
	calls := 0
	p.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(2 * time.Second)
	}

	res := p.PollOnce()
	if !res.At.Equal(base.Add(time.Second)) {
		t.Fatalf("At=%v, want midpoint", res.At)
	}
	if res.Took != 2*time.Second {
		t.Fatalf("Took=%v", res.Took)
	}
}

func TestNew_Rejects(t *testing.T) {
	bad := []Config{
		{Interval: time.Second, Register: InputRegisters},
		{Device: "d", Register: InputRegisters},
		{Device: "d", Interval: time.Second, Register: 1},
		{Device: "d", Interval: time.Second, Register: InputRegisters, Address: 65535, Quantity: 2},
	}
	for i, c := range bad {
		if _, err := New(c, &fakeClient{}, nil); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	if _, err := New(cfg(1), nil, nil); err == nil {
		t.Fatalf("expected error without client and factory")
	}
}

func TestRun_PollsImmediatelyAndStops(t *testing.T) {
	c := cfg(2)
	c.Interval = time.Hour
	fc := &fakeClient{}
	p, _ := New(c, fc, nil)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan PollResult)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out)
		close(done)
	}()

	select {
	case res := <-out:
		if res.Err != nil {
			t.Fatalf("unexpected err %v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no immediate poll")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}
	if !fc.closed {
		t.Fatalf("Run must close the client on exit")
	}
}

func TestParseRegisterType(t *testing.T) {
	if r, _ := ParseRegisterType("holding"); r != HoldingRegisters {
		t.Fatalf("holding -> %v", r)
	}
	if r, _ := ParseRegisterType("input"); r != InputRegisters {
		t.Fatalf("input -> %v", r)
	}
	if _, err := ParseRegisterType("coil"); err == nil {
		t.Fatalf("expected error")
	}
}
