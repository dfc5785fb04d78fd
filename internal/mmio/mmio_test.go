// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package mmio

import (
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
)

// mapTempFile swaps DevMem for an ordinary file so a Window can be mapped
// without device memory.
func mapTempFile(t *testing.T, size int) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "mmio")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	fn := filepath.Join(dir, "mem")
	if err = ioutil.WriteFile(fn, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
	devmem := DevMem
	DevMem = fn
	t.Cleanup(func() { DevMem = devmem })
	return fn
}

func TestWindowReadWrite(t *testing.T) {
	assert := test.Assert{t}
	pg := syscall.Getpagesize()
	fn := mapTempFile(t, 2*pg)

	w, err := Open(uintptr(pg), 0x1000)
	assert.Nil(err)
	defer w.Close()

	assert.Nil(w.W32(0x00, 0xd00dfeed))
	assert.Nil(w.W32(0x14, 0x66))
	v, err := w.R32(0x00)
	assert.Nil(err)
	if v != 0xd00dfeed {
		t.Fatalf("read back %#x", v)
	}

	// Stores land at the window base within the backing file.
	b, err := ioutil.ReadFile(fn)
	assert.Nil(err)
	if x := binary.LittleEndian.Uint32(b[pg:]); x != 0xd00dfeed {
		t.Fatalf("file word %#x", x)
	}
	if x := binary.LittleEndian.Uint32(b[pg+0x14:]); x != 0x66 {
		t.Fatalf("file word %#x", x)
	}
}

func TestWindowUnalignedBase(t *testing.T) {
	assert := test.Assert{t}
	pg := syscall.Getpagesize()
	fn := mapTempFile(t, 2*pg)

	w, err := Open(uintptr(pg+8), 0x100)
	assert.Nil(err)
	defer w.Close()

	assert.Nil(w.W32(0x04, 0x12345678))
	b, err := ioutil.ReadFile(fn)
	assert.Nil(err)
	if x := binary.LittleEndian.Uint32(b[pg+8+4:]); x != 0x12345678 {
		t.Fatalf("file word %#x", x)
	}
}

func TestWindowBounds(t *testing.T) {
	assert := test.Assert{t}
	pg := syscall.Getpagesize()
	mapTempFile(t, 2*pg)

	w, err := Open(uintptr(pg), 0x18)
	assert.Nil(err)
	defer w.Close()

	_, err = w.R32(0x18)
	assert.Error(err, "0x18: outside 0x18 byte window")
	err = w.W32(0x16, 0)
	assert.Error(err, "0x16: misaligned register")
	_, err = w.R32(0x14)
	assert.Nil(err)
}

func TestWindowNoDevice(t *testing.T) {
	devmem := DevMem
	DevMem = "/does/not/exist"
	defer func() { DevMem = devmem }()
	if _, err := Open(0, 0x1000); err == nil {
		t.Fatal("expected open error")
	}
}
