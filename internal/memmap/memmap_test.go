// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package memmap

import (
	"strings"
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
)

const iomem = `00000000-3fffffff : System RAM
  00080000-013fffff : Kernel code
  01d00000-01ffffff : Kernel data
a0010000-a001ffff : a0010000.timer timer
fd0c0000-fd0c1fff : ahci
fd0c2000-fd0c2fff : ahci
`

func TestReaderToMap(t *testing.T) {
	assert := test.Assert{t}
	m, err := ReaderToMap(strings.NewReader(iomem))
	assert.Nil(err)
	if len(m) != 5 {
		t.Fatalf("%d regions, want 5", len(m))
	}
	ram := m["System RAM"]
	if len(ram.Ranges) != 1 || ram.Ranges[0].Start != 0 ||
		ram.Ranges[0].End != 0x3fffffff {
		t.Fatalf("System RAM %v", ram)
	}
	if len(m["ahci"].Ranges) != 2 {
		t.Fatalf("ahci %v", m["ahci"])
	}
	assert.Equal(m["Kernel code"].String(),
		"Kernel code: [80000-13fffff]")
}

func TestFind(t *testing.T) {
	assert := test.Assert{t}
	m, err := ReaderToMap(strings.NewReader(iomem))
	assert.Nil(err)
	reg, found := m.Find("timer")
	assert.True(found)
	assert.Equal(reg.What, "a0010000.timer timer")
	if reg.Ranges[0].Start != 0xa0010000 {
		t.Fatalf("start %x", reg.Ranges[0].Start)
	}
	_, found = m.Find("watchdog")
	assert.False(found)
}
