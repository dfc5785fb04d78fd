// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package gpio provides the cli command to query and set GPIO pins by the
// names given in the machine's device tree.
package gpio

import (
	"fmt"
	"sort"
	"sync"

	"github.com/platinasystems/goes-kv260/lang"
	"github.com/platinasystems/gpio"
)

type Command struct {
	// Init loads the pin and alias maps, usually from the machine dtb.
	Init func()
	init sync.Once
}

func (*Command) String() string { return "gpio" }

func (*Command) Usage() string { return "gpio [PIN_NAME [VALUE]]" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "manipulate GPIO pins",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Without arguments, print the value of every named pin.

	gpio PIN_NAME
		print the value of the named pin

	gpio PIN_NAME VALUE
		set the named pin; VALUE is true, 1, false, or 0

	gpio default
		restore every pin to its device tree direction

	Pin names come from the gpio aliases of the machine device tree.`,
	}
}

func (c *Command) Main(args ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}
	switch len(args) {
	case 0:
		names := make([]string, 0, len(gpio.Pins))
		for name := range gpio.Pins {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			printValue(name, gpio.Pins[name])
		}
	case 1:
		if args[0] == "default" {
			for name, pin := range gpio.Pins {
				if err := pin.SetDirection(); err != nil {
					fmt.Printf("%s: %v\n", name, err)
				}
			}
			return nil
		}
		pin, found := gpio.Pins[args[0]]
		if !found {
			return fmt.Errorf("%s: not found", args[0])
		}
		printValue(args[0], pin)
	case 2:
		pin, found := gpio.Pins[args[0]]
		if !found {
			return fmt.Errorf("%s: not found", args[0])
		}
		switch args[1] {
		case "true", "1":
			return pin.SetValue(true)
		case "false", "0":
			return pin.SetValue(false)
		default:
			return fmt.Errorf("%s: invalid, must be true|false",
				args[1])
		}
	default:
		return fmt.Errorf("%v: unexpected", args[2:])
	}
	return nil
}

func printValue(name string, pin gpio.Pin) {
	v, err := pin.Value()
	if err != nil {
		fmt.Printf("%s: %v\n", name, err)
		return
	}
	fmt.Printf("%s: %v\n", name, v)
}
