// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fanctl pokes the fan PWM timer directly, without redis.
package fanctl

import (
	"fmt"
	"strconv"
	"time"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"

	"github.com/platinasystems/goes-kv260/internal/assert"
	"github.com/platinasystems/goes-kv260/internal/axitimer"
	"github.com/platinasystems/goes-kv260/internal/dbg"
	"github.com/platinasystems/goes-kv260/internal/fdtimer"
	"github.com/platinasystems/goes-kv260/internal/mmio"
	"github.com/platinasystems/goes-kv260/lang"
)

type Command struct{}

func (Command) String() string { return "fanctl" }

func (Command) Usage() string {
	return `
	fanctl [OPTION]... set DUTY
	fanctl [OPTION]... start | stop | status
	fanctl [OPTION]... demo`
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "poke the fan PWM timer",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Program the AXI timer pair behind the KV260 fan header.

	set DUTY
		stop, reprogram for the given duty cycle, and restart.
		DUTY below 0.6 is raised to 0.6; the stock fan stalls
		under that.

	start	restart at the duty cycle already in the load registers

	stop	park both channels; the fan coasts to a stop

	status	print the register file with decoded control bits

	demo	the bring-up sequence: a second at the clamp floor to
		overcome stall, then 0.25, which also clamps

OPTIONS
	-base PA	map the timer at this physical address instead of
			searching the device tree
	-size LEN	range length for -base
	-period TICKS	PWM period in timer ticks, default 255
	-debug		trace register reads and writes

	Don't poke while fanctld is running; the daemon owns the timer.`,
	}
}

func (Command) Main(args ...string) error {
	if err := assert.Root(); err != nil {
		return err
	}
	flag, args := flags.New(args, "-debug")
	parm, args := parms.New(args, "-base", "-size", "-period")
	if flag.ByName["-debug"] {
		axitimer.Dbg = dbg.FileLine
	}
	if len(args) == 0 {
		return fmt.Errorf("VERB: missing")
	}

	var base uintptr
	var size uint
	var period uint32
	for _, x := range []struct {
		name string
		set  func(uint64)
	}{
		{"-base", func(u uint64) { base = uintptr(u) }},
		{"-size", func(u uint64) { size = uint(u) }},
		{"-period", func(u uint64) { period = uint32(u) }},
	} {
		if s := parm.ByName[x.name]; len(s) > 0 {
			u, err := strconv.ParseUint(s, 0, 64)
			if err != nil {
				return fmt.Errorf("%s: %v", x.name, err)
			}
			x.set(u)
		}
	}

	tm := &fdtimer.Timer{Name: "fixed", Base: base, Size: size}
	if base == 0 {
		var err error
		if tm, err = fdtimer.Find(); err != nil {
			return err
		}
	}
	win, err := mmio.Open(tm.Base, axitimer.Size)
	if err != nil {
		return err
	}
	defer win.Close()
	pwm := axitimer.New(win, period)

	switch args[0] {
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("DUTY: missing")
		}
		f, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("%s: %v", args[1], err)
		}
		if err = pwm.Configure(f); err != nil {
			return err
		}
		return pwm.Start()
	case "start":
		s, err := pwm.Status()
		if err != nil {
			return err
		}
		// resume whatever the load registers hold
		duty := 1.0
		if s.Tlr[0] != 0 {
			duty = s.Duty()
		}
		if err = pwm.Configure(duty); err != nil {
			return err
		}
		return pwm.Start()
	case "stop":
		return pwm.Stop()
	case "status":
		s, err := pwm.Status()
		if err != nil {
			return err
		}
		fmt.Println("timer:", tm)
		fmt.Println(s)
		return nil
	case "demo":
		return demo(pwm)
	}
	return fmt.Errorf("%s: command not found", args[0])
}

// demo runs the original bring-up sequence. A second at the clamp floor
// overcomes stall before settling at the requested speed.
func demo(pwm *axitimer.Pwm) error {
	if err := pwm.Configure(0.0); err != nil {
		return err
	}
	if err := pwm.Start(); err != nil {
		return err
	}

	time.Sleep(time.Second)

	if err := pwm.Configure(0.25); err != nil {
		return err
	}
	return pwm.Start()
}
