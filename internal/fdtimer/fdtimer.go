// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtimer locates an AXI Timer instance in the programmable logic.
package fdtimer

import (
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/platinasystems/fdt"

	"github.com/platinasystems/goes-kv260/internal/memmap"
)

// Compatible matches the Xilinx AXI Timer binding.
const Compatible = "xlnx,xps-timer-1.00.a"

var (
	// File is the flattened device tree the kernel booted with.
	File = "/sys/firmware/fdt"
	// Iomem names claimed physical ranges when File is absent.
	Iomem = "/proc/iomem"
)

type Timer struct {
	Name string
	Base uintptr
	Size uint
}

func (tm *Timer) String() string {
	return fmt.Sprintf("%s@%#x+%#x", tm.Name, tm.Base, tm.Size)
}

// Find returns the lowest addressed AXI timer from the flattened device
// tree, falling back to /proc/iomem when the kernel doesn't export the
// blob or the overlay isn't described there.
func Find() (*Timer, error) {
	if b, err := ioutil.ReadFile(File); err == nil {
		if tm := fromTree(b); tm != nil {
			return tm, nil
		}
	}
	return fromIomem()
}

func fromTree(b []byte) *Timer {
	t := &fdt.Tree{Debug: false, IsLittleEndian: false}
	if t.Parse(b) != nil {
		return nil
	}
	var timers []*Timer
	t.EachProperty("compatible", Compatible,
		func(n *fdt.Node, name string, value string) {
			reg := t.PropUint32Slice(n.Properties["reg"])
			var base uintptr
			var size uint
			switch len(reg) {
			case 2:
				base = uintptr(reg[0])
				size = uint(reg[1])
			case 4:
				// two address and two size cells
				base = uintptr(reg[0])<<32 | uintptr(reg[1])
				size = uint(reg[2])<<32 | uint(reg[3])
			default:
				return
			}
			timers = append(timers, &Timer{
				Name: n.Name,
				Base: base,
				Size: size,
			})
		})
	if len(timers) == 0 {
		return nil
	}
	sort.Slice(timers, func(i, j int) bool {
		return timers[i].Base < timers[j].Base
	})
	return timers[0]
}

func fromIomem() (*Timer, error) {
	m, err := memmap.FileToMap(Iomem)
	if err != nil {
		return nil, err
	}
	reg, found := m.Find("axi-timer")
	if !found {
		// Kernels claiming the node name the range ADDR.timer.
		reg, found = m.Find(".timer")
	}
	if !found {
		return nil, fmt.Errorf("no %s in %s or %s", Compatible, File,
			Iomem)
	}
	r := reg.Ranges[0]
	return &Timer{
		Name: reg.What,
		Base: r.Start,
		Size: uint(r.End-r.Start) + 1,
	}, nil
}
