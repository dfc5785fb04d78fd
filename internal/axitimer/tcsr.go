// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package axitimer

import (
	"fmt"
	"strings"
)

// Tcsr is the per channel control/status register.
type Tcsr uint32

const (
	MDT   Tcsr = 1 << iota // 0 generate mode, 1 capture mode
	UDT                    // count down from load value
	GENT                   // drive external generate signal
	CAPT                   // arm external capture trigger
	ARHT                   // auto reload on carry
	LOAD                   // force load from TLR while high
	ENIT                   // interrupt enable
	ENT                    // counter enable
	TINT                   // interrupt pending, write 1 to clear
	PWMA                   // PWM output enable
	ENALL                  // enable both channels, reads back on each
	CASC                   // cascade into one 64-bit counter
)

var tcsrNames = []string{
	"MDT",
	"UDT",
	"GENT",
	"CAPT",
	"ARHT",
	"LOAD",
	"ENIT",
	"ENT",
	"TINT",
	"PWMA",
	"ENALL",
	"CASC",
}

func (t Tcsr) String() string {
	if t == 0 {
		return "0"
	}
	var set []string
	for i, name := range tcsrNames {
		if t&(1<<uint(i)) != 0 {
			set = append(set, name)
		}
	}
	if rest := t &^ (1<<uint(len(tcsrNames)) - 1); rest != 0 {
		set = append(set, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(set, "|")
}
