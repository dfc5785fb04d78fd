// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package axitimer

import (
	"fmt"
	"strings"
)

// Status is a decoded snapshot of both channels.
type Status struct {
	Tcsr [2]Tcsr
	Tlr  [2]uint32
	Tcr  [2]uint32
}

// Status reads back the register file.
func (p *Pwm) Status() (*Status, error) {
	r := getRegs()
	var s Status
	for i, x := range []struct {
		tcsr, tlr, tcr *reg32
	}{
		{&r.Tcsr0, &r.Tlr0, &r.Tcr0},
		{&r.Tcsr1, &r.Tlr1, &r.Tcr1},
	} {
		v, err := p.r32(x.tcsr.offset())
		if err != nil {
			return nil, err
		}
		s.Tcsr[i] = Tcsr(v)
		if s.Tlr[i], err = p.r32(x.tlr.offset()); err != nil {
			return nil, err
		}
		if s.Tcr[i], err = p.r32(x.tcr.offset()); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Running reports whether the pair is counting. ENALL reads back as ENT on
// both channels.
func (s *Status) Running() bool { return s.Tcsr[0]&ENT != 0 }

// Duty recovers the programmed duty cycle from the load registers.
func (s *Status) Duty() float64 {
	if s.Tlr[0] == 0 {
		return 0
	}
	return 1 - float64(s.Tlr[1])/float64(s.Tlr[0])
}

func (s *Status) String() string {
	state := "stopped"
	if s.Running() {
		state = "running"
	}
	return strings.Join([]string{
		fmt.Sprint("tcsr0: ", s.Tcsr[0]),
		fmt.Sprint("tlr0: ", s.Tlr[0]),
		fmt.Sprint("tcr0: ", s.Tcr[0]),
		fmt.Sprint("tcsr1: ", s.Tcsr[1]),
		fmt.Sprint("tlr1: ", s.Tlr[1]),
		fmt.Sprint("tcr1: ", s.Tcr[1]),
		fmt.Sprintf("duty: %.2f", s.Duty()),
		fmt.Sprint("state: ", state),
	}, "\n")
}
