// Copyright © 2016-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package stop provides the named command that kills all of the daemons
// associated with this executable.
package stop

import (
	"fmt"
	"os"

	"github.com/platinasystems/parms"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/internal/assert"
	"github.com/platinasystems/goes-kv260/internal/pidfile"
	"github.com/platinasystems/goes-kv260/lang"
)

const EtcGoesStop = "/etc/goes/stop"

type Command struct {
	g *goes.Goes
}

func (*Command) String() string { return "stop" }

func (*Command) Usage() string { return "stop [-stop=URL]" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "stop this goes machine",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Source the machine stop script, ask the daemons server to stop
	every daemon, then remove their pid files.

OPTIONS
	-stop URL
		stop script reference
		default: /etc/goes/stop`,
	}
}

func (c *Command) Goes(g *goes.Goes) { c.g = g }

func (c *Command) Kind() cmd.Kind { return cmd.DontFork }

func (c *Command) Main(args ...string) error {
	parm, args := parms.New(args, "-stop")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	if err := assert.Root(); err != nil {
		return err
	}
	c.source(parm.ByName["-stop"])
	if err := c.g.Main("daemon", "stop"); err != nil {
		return err
	}
	pidfile.RemoveAll()
	return nil
}

// source runs the given stop script, or /etc/goes/stop if present, before
// the daemons go down. Script trouble is reported without blocking the
// stop.
func (c *Command) source(stop string) {
	if len(stop) == 0 {
		if _, err := os.Stat(EtcGoesStop); err != nil {
			return
		}
		stop = EtcGoesStop
	}
	if err := c.g.Main("source", stop); err != nil {
		fmt.Fprintf(os.Stderr, "source %s: %v\n", stop, err)
	}
}
