// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package axitimer

import "unsafe"

// Memory map of the dual-channel AXI Timer/Counter IP.
type regs struct {
	Tcsr0 reg32
	Tlr0  reg32
	Tcr0  reg32
	_     reg32
	Tcsr1 reg32
	Tlr1  reg32
	Tcr1  reg32
}

type reg32 [4]byte

// Size of the register window mapped for one timer block.
const Size = 0x1000

var dummy byte
var regsPointer = unsafe.Pointer(&dummy)
var regsAddr = uintptr(unsafe.Pointer(&dummy))

func getRegs() *regs          { return (*regs)(regsPointer) }
func (r *reg32) offset() uint { return uint(uintptr(unsafe.Pointer(r)) - regsAddr) }
