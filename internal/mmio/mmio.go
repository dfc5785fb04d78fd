// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package mmio maps a physical register window through /dev/mem.
package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"syscall"
	"unsafe"
)

// DevMem may be pointed at an ordinary file to exercise a Window without
// device memory.
var DevMem = "/dev/mem"

// Window is a mapped run of device registers. Accesses are 32 bit, aligned,
// and bounded by the window size.
type Window struct {
	f    *os.File
	mem  []byte
	off  uint
	size uint
}

// Open maps size bytes of physical memory at base. The mapping is shared so
// stores reach the device.
func Open(base uintptr, size uint) (*Window, error) {
	f, err := os.OpenFile(DevMem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	// Mmap offsets must be page aligned; keep the remainder.
	off := uint(base) & uint(syscall.Getpagesize()-1)
	mem, err := syscall.Mmap(int(f.Fd()), int64(base)-int64(off),
		int(off+size), syscall.PROT_READ|syscall.PROT_WRITE,
		syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s %#x: %v", DevMem, base, err)
	}
	return &Window{f: f, mem: mem, off: off, size: size}, nil
}

func (w *Window) Close() error {
	err := syscall.Munmap(w.mem)
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.mem = nil
	return err
}

func (w *Window) word(off uint) (*uint32, error) {
	if off&3 != 0 {
		return nil, fmt.Errorf("%#x: misaligned register", off)
	}
	if off+4 > w.size {
		return nil, fmt.Errorf("%#x: outside %#x byte window", off,
			w.size)
	}
	return (*uint32)(unsafe.Pointer(&w.mem[w.off+off])), nil
}

func (w *Window) R32(off uint) (uint32, error) {
	p, err := w.word(off)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

func (w *Window) W32(off uint, v uint32) error {
	p, err := w.word(off)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, v)
	return nil
}
