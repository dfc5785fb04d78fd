// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package axitimer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
)

type portOp struct {
	wr  bool
	off uint
	v   uint32
}

func (o portOp) String() string {
	dir := "r"
	if o.wr {
		dir = "w"
	}
	return fmt.Sprintf("%s 0x%02x 0x%08x", dir, o.off, o.v)
}

// testPort is a Port backed by a register map that records every access.
type testPort struct {
	reg  map[uint]uint32
	ops  []portOp
	rerr error
	werr error
}

func newTestPort() *testPort {
	return &testPort{reg: make(map[uint]uint32)}
}

func (p *testPort) R32(off uint) (uint32, error) {
	if p.rerr != nil {
		return 0, p.rerr
	}
	p.ops = append(p.ops, portOp{false, off, p.reg[off]})
	return p.reg[off], nil
}

func (p *testPort) W32(off uint, v uint32) error {
	if p.werr != nil {
		return p.werr
	}
	p.reg[off] = v
	p.ops = append(p.ops, portOp{true, off, v})
	return nil
}

func (p *testPort) script() string {
	lines := make([]string, len(p.ops))
	for i, o := range p.ops {
		lines[i] = o.String()
	}
	return strings.Join(lines, "\n")
}

// lastWrite returns the value of the last write to off.
func (p *testPort) lastWrite(t *testing.T, off uint) uint32 {
	t.Helper()
	for i := len(p.ops) - 1; i >= 0; i-- {
		if p.ops[i].wr && p.ops[i].off == off {
			return p.ops[i].v
		}
	}
	t.Fatalf("no write to 0x%02x", off)
	return 0
}

func TestConfigureSequence(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	pwm := New(port, 255)
	assert.Nil(pwm.Configure(0.25))
	// Both channels stop, both take generate mode, period then duty
	// compare load, and both capture bits clear, in that order. The
	// requested 0.25 clamps to the 0.6 floor, so the low time compare is
	// floor(255 * 0.4) = 102.
	assert.Equal(port.script(), strings.Join([]string{
		"r 0x00 0x00000000",
		"w 0x00 0x00000000",
		"r 0x10 0x00000000",
		"w 0x10 0x00000000",
		"r 0x00 0x00000000",
		"w 0x00 0x00000012",
		"r 0x10 0x00000000",
		"w 0x10 0x00000012",
		"w 0x04 0x000000ff",
		"w 0x14 0x00000066",
		"r 0x00 0x00000012",
		"w 0x00 0x00000012",
		"r 0x10 0x00000012",
		"w 0x10 0x00000012",
	}, "\n"))
}

func TestStartSequence(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	pwm := New(port, 255)
	assert.Nil(pwm.Configure(0.6))
	port.ops = nil
	assert.Nil(pwm.Start())
	// Mode bits on both channels, a load pulse on both, then the one
	// synchronized enable on channel 0. No enable ever lands on channel 1.
	assert.Equal(port.script(), strings.Join([]string{
		"r 0x00 0x00000012",
		"w 0x00 0x00000216",
		"r 0x10 0x00000012",
		"w 0x10 0x00000216",
		"r 0x00 0x00000216",
		"w 0x00 0x00000236",
		"w 0x00 0x00000216",
		"r 0x10 0x00000216",
		"w 0x10 0x00000236",
		"w 0x10 0x00000216",
		"r 0x00 0x00000216",
		"w 0x00 0x00000616",
	}, "\n"))
}

func TestResetCountsRestoresTcsr(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	port.reg[0x00] = uint32(UDT | GENT | ARHT | ENT)
	port.reg[0x10] = uint32(UDT | ARHT | ENT)
	pwm := New(port, 0)
	assert.Nil(pwm.ResetCounts())
	// Each channel pulses LOAD then gets back its exact pre-read value.
	assert.Equal(port.script(), strings.Join([]string{
		"r 0x00 0x00000096",
		"w 0x00 0x000000b6",
		"w 0x00 0x00000096",
		"r 0x10 0x00000092",
		"w 0x10 0x000000b2",
		"w 0x10 0x00000092",
	}, "\n"))
}

func TestStopIdempotent(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	pwm := New(port, 0)
	assert.Nil(pwm.Configure(0.8))
	assert.Nil(pwm.Start())
	port.ops = nil
	assert.Nil(pwm.Stop())
	first := port.script()
	port.ops = nil
	assert.Nil(pwm.Stop())
	assert.Equal(port.script(), first)
}

func TestClampFloorIdempotent(t *testing.T) {
	assert := test.Assert{t}
	below := newTestPort()
	assert.Nil(New(below, 255).Configure(0.3))
	floor := newTestPort()
	assert.Nil(New(floor, 255).Configure(DutyFloor))
	assert.Equal(below.script(), floor.script())
}

func TestClampCeiling(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	assert.Nil(New(port, 65535).Configure(1.5))
	if v := port.lastWrite(t, 0x14); v != 0 {
		t.Fatalf("duty compare 0x%08x, want 0", v)
	}
}

func TestDutyCompare(t *testing.T) {
	assert := test.Assert{t}
	for _, x := range []struct {
		period uint32
		duty   float64
		tlr1   uint32
	}{
		{255, 0.6, 102},
		{255, 0.75, 63},
		{255, 1.0, 0},
		{65535, 1.0, 0},
		{65535, 0.75, 16383},
		{1000, 0.75, 250},
	} {
		port := newTestPort()
		assert.Nil(New(port, x.period).Configure(x.duty))
		if v := port.lastWrite(t, 0x14); v != x.tlr1 {
			t.Fatalf("period %d duty %g: compare %d, want %d",
				x.period, x.duty, v, x.tlr1)
		}
		if v := port.lastWrite(t, 0x04); v != x.period {
			t.Fatalf("period write %d, want %d", v, x.period)
		}
	}
}

func TestChannel1NeverEnabled(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	pwm := New(port, 0)
	assert.Nil(pwm.Configure(0.7))
	assert.Nil(pwm.Start())
	assert.Nil(pwm.Configure(0.9))
	assert.Nil(pwm.Start())
	assert.Nil(pwm.Stop())
	// The only enable the driver ever writes is ENALL on channel 0; ENT is
	// the hardware's to set. A direct channel 1 enable would glitch the
	// pair.
	enalls := 0
	for _, o := range port.ops {
		if !o.wr || (o.off != 0x00 && o.off != 0x10) {
			continue
		}
		if Tcsr(o.v)&ENT != 0 {
			t.Fatalf("direct ENT write to tcsr 0x%02x", o.off)
		}
		if Tcsr(o.v)&ENALL != 0 {
			if o.off != 0x00 {
				t.Fatalf("ENALL written to 0x%02x", o.off)
			}
			enalls++
		}
	}
	if enalls == 0 {
		t.Fatal("no ENALL write")
	}
}

func TestClamp(t *testing.T) {
	for _, x := range []struct{ in, out float64 }{
		{0, DutyFloor},
		{0.25, DutyFloor},
		{DutyFloor, DutyFloor},
		{0.75, 0.75},
		{1, 1},
		{1.5, 1},
	} {
		if v := Clamp(x.in); v != x.out {
			t.Fatalf("Clamp(%g) = %g, want %g", x.in, v, x.out)
		}
	}
}

func TestStatus(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	pwm := New(port, 255)
	assert.Nil(pwm.Configure(0.6))
	assert.Nil(pwm.Start())
	// ENALL reads back as ENT on both channels in hardware; fake it.
	port.reg[0x00] |= uint32(ENT)
	port.reg[0x10] |= uint32(ENT)
	s, err := pwm.Status()
	assert.Nil(err)
	assert.True(s.Running())
	if s.Duty() != 0.6 {
		t.Fatalf("duty %g", s.Duty())
	}
	assert.Equal(s.String(), strings.Join([]string{
		"tcsr0: UDT|GENT|ARHT|ENT|PWMA|ENALL",
		"tlr0: 255",
		"tcr0: 0",
		"tcsr1: UDT|GENT|ARHT|ENT|PWMA",
		"tlr1: 102",
		"tcr1: 0",
		"duty: 0.60",
		"state: running",
	}, "\n"))
}

func TestStartBeforeConfigure(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	err := New(port, 0).Start()
	assert.Error(err, ErrNotConfigured)
	if len(port.ops) != 0 {
		t.Fatalf("unconfigured start touched the device:\n%s",
			port.script())
	}
}

func TestDefaultPeriod(t *testing.T) {
	assert := test.Assert{t}
	port := newTestPort()
	pwm := New(port, 0)
	if pwm.Period() != DefaultPeriod {
		t.Fatalf("period %d, want %d", pwm.Period(), DefaultPeriod)
	}
	assert.Nil(pwm.Configure(1))
	if v := port.lastWrite(t, 0x04); v != DefaultPeriod {
		t.Fatalf("period write 0x%02x, want 0x%02x", v, DefaultPeriod)
	}
}

func TestPortFaults(t *testing.T) {
	assert := test.Assert{t}
	rerr := errors.New("read fault")
	werr := errors.New("write fault")

	port := newTestPort()
	port.rerr = rerr
	assert.Error(New(port, 0).Configure(0.8), rerr)

	port = newTestPort()
	port.werr = werr
	assert.Error(New(port, 0).Configure(0.8), werr)

	port = newTestPort()
	pwm := New(port, 0)
	assert.Nil(pwm.Configure(0.8))
	port.rerr = rerr
	assert.Error(pwm.Start(), rerr)
	port.rerr = nil
	port.werr = werr
	assert.Error(pwm.Start(), werr)
	assert.Error(pwm.Stop(), werr)
	assert.Error(pwm.ResetCounts(), werr)
}
