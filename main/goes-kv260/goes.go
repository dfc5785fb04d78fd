// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"io/ioutil"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"
	"github.com/platinasystems/log"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/cmd/cli"
	"github.com/platinasystems/goes-kv260/cmd/daemons"
	"github.com/platinasystems/goes-kv260/cmd/fanctl"
	"github.com/platinasystems/goes-kv260/cmd/fanctld"
	frucmd "github.com/platinasystems/goes-kv260/cmd/fru"
	gpiocmd "github.com/platinasystems/goes-kv260/cmd/gpio"
	"github.com/platinasystems/goes-kv260/cmd/hget"
	"github.com/platinasystems/goes-kv260/cmd/hgetall"
	"github.com/platinasystems/goes-kv260/cmd/hset"
	"github.com/platinasystems/goes-kv260/cmd/overlay"
	"github.com/platinasystems/goes-kv260/cmd/redisd"
	"github.com/platinasystems/goes-kv260/cmd/source"
	"github.com/platinasystems/goes-kv260/cmd/sshd"
	"github.com/platinasystems/goes-kv260/cmd/start"
	"github.com/platinasystems/goes-kv260/cmd/stop"
	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/internal/fdtgpio"
	"github.com/platinasystems/goes-kv260/internal/fru"
	"github.com/platinasystems/goes-kv260/internal/prog"
	"github.com/platinasystems/goes-kv260/lang"
)

const name = "kv260"

func init() {
	redis.DefaultHash = name
	prog.Install = "/usr/bin/goes-" + name
	// The live tree includes nodes added by loaded overlays.
	gpio.File = "/sys/firmware/fdt"
}

var Goes = &goes.Goes{
	NAME: "goes-" + name,
	APROPOS: lang.Alt{
		lang.EnUS: "fan controller for the Kria KV260 starter kit",
	},
	ByName: map[string]cmd.Cmd{
		"cli":     &cli.Command{},
		"daemon":  daemons.Admin,
		"fanctl":  fanctl.Command{},
		"fanctld": &fanctld.Command{},
		"fru":     &frucmd.Command{},
		"goes-daemons": &daemons.Server{
			Init: [][]string{
				[]string{"redisd"},
				[]string{"fanctld"},
			},
		},
		"gpio": &gpiocmd.Command{
			Init: gpioInit,
		},
		"hget":    hget.Command{},
		"hgetall": hgetall.Command{},
		"hset":    hset.Command{},
		"overlay": overlay.Command{},
		"redisd": &redisd.Command{
			Devs:    []string{"lo", "eth0"},
			Machine: name,
			Hook:    pubFru,
		},
		"show": &goes.Goes{
			NAME:  "show",
			USAGE: "show OBJECT",
			APROPOS: lang.Alt{
				lang.EnUS: "print stuff",
			},
			ByName: map[string]cmd.Cmd{
				"machine": goes.ShowMachine(name),
			},
		},
		"source": &source.Command{},
		"sshd":   &sshd.Command{},
		"start": &start.Command{
			Hook: loadFanOverlay,
		},
		"stop": &stop.Command{},
	},
}

// loadFanOverlay programs the PL with the fan controller design before any
// daemon pokes it. Best effort; a boot time loader may already have it.
func loadFanOverlay() error {
	err := (overlay.Command{}).Main("load", overlay.DefaultName)
	if err != nil {
		log.Print("overlay: ", err)
	}
	return nil
}

// pubFru publishes the SOM identity, read once at redisd start. A machine
// with an unreadable EEPROM still comes up.
func pubFru(pub *publisher.Publisher) {
	d := fru.Device{
		BusIndex:   frucmd.DefaultBus,
		BusAddress: frucmd.DefaultAddr,
	}
	if err := d.GetInfo(); err != nil {
		log.Print("fru: ", err)
		return
	}
	pub.Print("fru.mfg: ", d.Board.Mfg)
	pub.Print("fru.product: ", d.Board.Product)
	pub.Print("fru.serial: ", d.Board.Serial)
	pub.Print("fru.part: ", d.Board.Part)
	pub.Print("fru.mfg.date: ", d.Board.MfgDate.Format("2006-01-02 15:04"))
}

// gpioInit maps the pins named by the machine device tree.
func gpioInit() {
	gpio.Aliases = make(gpio.GpioAliasMap)
	gpio.Pins = make(gpio.PinMap)
	b, err := ioutil.ReadFile(gpio.File)
	if err != nil {
		log.Print("gpio: ", err)
		return
	}
	t := &fdt.Tree{Debug: false, IsLittleEndian: false}
	if err = t.Parse(b); err != nil {
		log.Print("gpio: ", err)
		return
	}
	t.MatchNode("aliases", fdtgpio.GatherAliases)
	t.EachProperty("gpio-controller", "", fdtgpio.GatherPins)
}
