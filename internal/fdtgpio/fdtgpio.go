// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtgpio populates the gpio alias and pin maps from a flattened
// device tree.
package fdtgpio

import (
	"strconv"
	"strings"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"
)

// GatherAliases records each gpio controller named by the tree's aliases
// node, keyed by alias.
func GatherAliases(n *fdt.Node) {
	for name, value := range n.Properties {
		if !strings.Contains(name, "gpio") {
			continue
		}
		path := strings.Split(string(value), "\x00")[0]
		parts := strings.Split(path, "/")
		gpio.Aliases[name] = parts[len(parts)-1]
	}
}

// GatherPins adds the named pins of an aliased gpio controller to the pin
// map. A pin is a controller child with a gpio-pin-desc property, named
// NAME@INDEX, and one of the input, output-low, or output-high modes.
func GatherPins(n *fdt.Node, name string, value string) {
	for alias, controller := range gpio.Aliases {
		if controller != n.Name {
			continue
		}
		for _, c := range n.Children {
			var desc []string
			var mode string
			for p := range c.Properties {
				switch p {
				case "gpio-pin-desc":
					desc = strings.Split(c.Name, "@")
				case "output-high", "output-low", "input":
					mode = p
				}
			}
			if len(desc) != 2 || len(mode) == 0 {
				continue
			}
			i, err := strconv.Atoi(desc[1])
			if err != nil {
				continue
			}
			gpio.Pins[desc[0]] = gpio.GpioPinMode[mode] |
				gpio.GpioBankToBase[alias] | gpio.Pin(i)
		}
	}
}
