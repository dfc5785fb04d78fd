// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package axitimer drives the dual channel Xilinx AXI Timer/Counter IP as a
// glitch free PWM pair. Channel 0 sets the period, channel 1 sets the high
// time, and the hardware gates both outputs from the channel 0 enable so the
// pins never show a partially programmed waveform.
package axitimer

import (
	"errors"
	"math"

	"github.com/platinasystems/log"

	"github.com/platinasystems/goes-kv260/internal/dbg"
)

var Dbg = dbg.NoOp

// DutyFloor is the least duty cycle the fan header may run at. The KV260 fan
// stalls below this point, so lesser requests are raised to the floor.
const DutyFloor = 0.6

// DefaultPeriod is the PWM period in timer ticks when the caller gives none.
const DefaultPeriod = 0xFF

var ErrNotConfigured = errors.New("pwm not configured")

// Port is the register access a Pwm needs. Offsets are byte offsets from the
// timer block base. Implementations return the first fault and make no
// further guarantees about device state.
type Port interface {
	R32(off uint) (uint32, error)
	W32(off uint, v uint32) error
}

type Pwm struct {
	port       Port
	period     uint32
	configured bool
}

func New(port Port, period uint32) *Pwm {
	if period == 0 {
		period = DefaultPeriod
	}
	return &Pwm{port: port, period: period}
}

// Clamp returns the duty cycle Configure would apply for d.
func Clamp(d float64) float64 {
	if d < DutyFloor {
		return DutyFloor
	}
	if d > 1 {
		return 1
	}
	return d
}

func (p *Pwm) Period() uint32 { return p.period }

// Configure stops both channels, then programs the period and duty compare
// values and the generate mode bits. The timer is left stopped; call Start to
// raise the outputs. Out of range duty is clamped, not rejected.
func (p *Pwm) Configure(duty float64) error {
	r := getRegs()

	// Stop first so the load registers never change under a running count.
	for _, tcsr := range []*reg32{&r.Tcsr0, &r.Tcsr1} {
		err := p.mutRegBits(tcsr.offset(), 0, ENT)
		if err != nil {
			return err
		}
	}

	if clamped := Clamp(duty); clamped != duty {
		log.Print("warning: duty ", duty, " out of range, clamped to ",
			clamped)
		duty = clamped
	}
	// The channel 1 compare counts the fan's off time, not its on time.
	effective := 1 - duty

	for _, tcsr := range []*reg32{&r.Tcsr0, &r.Tcsr1} {
		err := p.mutRegBits(tcsr.offset(), UDT|ARHT, CASC|GENT)
		if err != nil {
			return err
		}
	}
	err := p.w32(r.Tlr0.offset(), p.period)
	if err != nil {
		return err
	}
	err = p.w32(r.Tlr1.offset(),
		uint32(math.Floor(float64(p.period)*effective)))
	if err != nil {
		return err
	}
	for _, tcsr := range []*reg32{&r.Tcsr0, &r.Tcsr1} {
		err = p.mutRegBits(tcsr.offset(), 0, CAPT)
		if err != nil {
			return err
		}
	}
	p.configured = true
	return nil
}

// Start raises both PWM outputs. The mode bits of both channels are set
// before the synchronized enable; ENALL on channel 0 gates both outputs, so
// channel 1 is never separately enabled.
func (p *Pwm) Start() error {
	if !p.configured {
		return ErrNotConfigured
	}
	r := getRegs()
	for _, tcsr := range []*reg32{&r.Tcsr0, &r.Tcsr1} {
		err := p.mutRegBits(tcsr.offset(), PWMA|GENT, 0)
		if err != nil {
			return err
		}
	}
	err := p.ResetCounts()
	if err != nil {
		return err
	}
	return p.mutRegBits(r.Tcsr0.offset(), ENALL, 0)
}

// Stop lowers both outputs. Stopping a stopped timer is harmless.
func (p *Pwm) Stop() error {
	r := getRegs()
	for _, tcsr := range []*reg32{&r.Tcsr0, &r.Tcsr1} {
		err := p.mutRegBits(tcsr.offset(), 0, ENT)
		if err != nil {
			return err
		}
	}
	return nil
}

// ResetCounts pulses LOAD on each channel so the counters restart from their
// load registers. The second write restores the exact pre-read TCSR value;
// without it the channel stays held in reload.
func (p *Pwm) ResetCounts() error {
	r := getRegs()
	for _, tcsr := range []*reg32{&r.Tcsr0, &r.Tcsr1} {
		off := tcsr.offset()
		v, err := p.r32(off)
		if err != nil {
			return err
		}
		err = p.w32(off, v|uint32(LOAD))
		if err != nil {
			return err
		}
		err = p.w32(off, v)
		if err != nil {
			return err
		}
	}
	return nil
}

// mutRegBits reads the register at off, ors in set, clears clear, and writes
// the result back.
func (p *Pwm) mutRegBits(off uint, set, clear Tcsr) error {
	v, err := p.r32(off)
	if err != nil {
		return err
	}
	return p.w32(off, (v|uint32(set))&^uint32(clear))
}

func (p *Pwm) r32(off uint) (uint32, error) {
	v, err := p.port.R32(off)
	if err != nil {
		return 0, err
	}
	Dbg.Logf("r32 %#02x -> %#08x", off, v)
	return v, nil
}

func (p *Pwm) w32(off uint, v uint32) error {
	Dbg.Logf("w32 %#02x <- %#08x", off, v)
	return p.port.W32(off, v)
}
