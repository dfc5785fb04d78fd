// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fdtgpio

import (
	"testing"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"
)

func TestGather(t *testing.T) {
	gpio.Aliases = make(gpio.GpioAliasMap)
	gpio.Pins = make(gpio.PinMap)
	defer func() {
		gpio.Aliases = nil
		gpio.Pins = nil
	}()

	GatherAliases(&fdt.Node{
		Name: "aliases",
		Properties: map[string][]byte{
			"gpio0":     []byte("/axi/gpio@ff0a0000\x00"),
			"ethernet0": []byte("/axi/ethernet@ff0b0000\x00"),
		},
	})
	if len(gpio.Aliases) != 1 {
		t.Fatal("aliases:", gpio.Aliases)
	}
	if name := gpio.Aliases["gpio0"]; name != "gpio@ff0a0000" {
		t.Fatal("gpio0:", name)
	}

	GatherPins(&fdt.Node{
		Name: "gpio@ff0a0000",
		Properties: map[string][]byte{
			"gpio-controller": nil,
		},
		Children: map[string]*fdt.Node{
			"PS_LED@22": &fdt.Node{
				Name: "PS_LED@22",
				Properties: map[string][]byte{
					"gpio-pin-desc": nil,
					"output-low":    nil,
				},
			},
			"PS_BUTTON@23": &fdt.Node{
				Name: "PS_BUTTON@23",
				Properties: map[string][]byte{
					"gpio-pin-desc": nil,
					"input":         nil,
				},
			},
			"undescribed": &fdt.Node{
				Name: "undescribed",
				Properties: map[string][]byte{
					"input": nil,
				},
			},
		},
	}, "", "")
	if len(gpio.Pins) != 2 {
		t.Fatal("pins:", gpio.Pins)
	}
	if pin := gpio.Pins["PS_LED"]; pin != gpio.IsOutputLo|22 {
		t.Fatalf("PS_LED: %x", uint32(pin))
	}
	if pin := gpio.Pins["PS_BUTTON"]; pin != gpio.IsInput|23 {
		t.Fatalf("PS_BUTTON: %x", uint32(pin))
	}
}

func TestGatherPinsOtherController(t *testing.T) {
	gpio.Aliases = gpio.GpioAliasMap{"gpio0": "gpio@ff0a0000"}
	gpio.Pins = make(gpio.PinMap)
	defer func() {
		gpio.Aliases = nil
		gpio.Pins = nil
	}()

	GatherPins(&fdt.Node{
		Name: "gpio@a0000000",
		Children: map[string]*fdt.Node{
			"EMIO_FAN@0": &fdt.Node{
				Name: "EMIO_FAN@0",
				Properties: map[string][]byte{
					"gpio-pin-desc": nil,
					"output-high":   nil,
				},
			},
		},
	}, "", "")
	if len(gpio.Pins) != 0 {
		t.Fatal("pins:", gpio.Pins)
	}
}
