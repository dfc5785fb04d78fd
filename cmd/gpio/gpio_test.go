// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package gpio

import (
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
	"github.com/platinasystems/gpio"
)

func TestInitOnce(t *testing.T) {
	assert := test.Assert{t}
	n := 0
	c := &Command{Init: func() {
		gpio.Pins = make(gpio.PinMap)
		n++
	}}
	defer func() { gpio.Pins = nil }()
	assert.Error(c.Main("PS_FAN_EN"), "PS_FAN_EN: not found")
	assert.Error(c.Main("PS_FAN_EN"), "PS_FAN_EN: not found")
	if n != 1 {
		t.Fatal("Init ran", n, "times")
	}
}

func TestArgs(t *testing.T) {
	assert := test.Assert{t}
	gpio.Pins = gpio.PinMap{"PMOD_IO0": gpio.IsOutputLo | 78}
	defer func() { gpio.Pins = nil }()
	c := new(Command)
	assert.Error(c.Main("PMOD_IO1"), "PMOD_IO1: not found")
	assert.Error(c.Main("PMOD_IO1", "1"), "PMOD_IO1: not found")
	assert.Error(c.Main("PMOD_IO0", "maybe"),
		"maybe: invalid, must be true|false")
	assert.Error(c.Main("PMOD_IO0", "1", "up"), "[up]: unexpected")
}
