// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fru provides the cli command to show the board identity read
// from the machine's FRU EEPROM.
package fru

import (
	"fmt"

	"github.com/platinasystems/goes-kv260/internal/fru"
	"github.com/platinasystems/goes-kv260/lang"
)

const (
	DefaultBus  = 1
	DefaultAddr = 0x50
)

type Command struct {
	// Bus and Addr locate the identity EEPROM, default 1:0x50 for the
	// KV260 system on module.
	Bus  int
	Addr int
}

func (*Command) String() string { return "fru" }

func (*Command) Usage() string { return "fru" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "show board identity",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Print the identity recorded in the board EEPROM: manufacturer,
	product, serial and part numbers, and the manufacture date.`,
	}
}

func (c *Command) Main(args ...string) error {
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	if c.Addr == 0 {
		c.Bus, c.Addr = DefaultBus, DefaultAddr
	}
	d := fru.Device{BusIndex: c.Bus, BusAddress: c.Addr}
	if err := d.GetInfo(); err != nil {
		return err
	}
	fmt.Println(d.Board.String())
	return nil
}
