// Copyright 2016-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package start spawns the server that supervises the machine daemons, then
// sources the machine configuration script. Run as pid 1 it doesn't return;
// it reaps orphans and iterates a console shell.
package start

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/platinasystems/parms"
	"github.com/ramr/go-reaper"

	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/internal/assert"
	"github.com/platinasystems/goes-kv260/internal/prog"
	"github.com/platinasystems/goes-kv260/lang"
)

type Command struct {
	// Machines may use Hook to run something before redisd and other
	// daemons, e.g. load the device overlay the daemons poke.
	Hook func() error

	// Machines may use ConfHook to run something after all daemons start
	// and before the source of the start command script.
	ConfHook func() error

	g *goes.Goes
}

func (*Command) String() string { return "start" }

func (*Command) Usage() string {
	return "start [-start=URL] [REDIS OPTIONS]..."
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "start this goes machine",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Spawn the daemons server, which brings up redisd then each machine
	daemon, and source the configuration script. As pid 1, start then
	iterates a console shell instead of returning.

OPTIONS
	-start URL
		Reference an alternate configuration script to source once
		the daemons are up.
		default: /etc/goes/start

	Trailing options go to redisd, e.g. -port PORT and the listening
	DEVICE list.

SEE ALSO
	redisd, stop`,
	}
}

func (c *Command) Goes(g *goes.Goes) { c.g = g }

func (c *Command) Main(args ...string) error {
	// -stop is swallowed here so it doesn't reach goes-daemons.
	parm, args := parms.New(args, "-start", "-stop")

	if err := assert.Root(); err != nil {
		return err
	}
	if prog.Name() != prog.Install && prog.Base() != "init" {
		return fmt.Errorf("use `%s start`", prog.Install)
	}
	if c.Hook != nil {
		if err := c.Hook(); err != nil {
			return err
		}
	}

	daemons, err := c.spawnDaemons(args)
	if err != nil {
		return err
	}

	if err = c.source(parm.ByName["-start"]); err != nil {
		return err
	}

	if os.Getpid() != 1 {
		return nil
	}

	// Orphans of stopped daemons reparent to pid 1.
	go reaper.Reap()

	go daemons.Wait()

	for {
		err = c.run("cli")
		if err == io.EOF {
			err = nil
		}
		if err != nil {
			fmt.Fprint(os.Stderr, prog.Base(), ": ", err, "\n")
		}
	}
}

// spawnDaemons runs the hidden goes-daemons server in its own session so
// that the exit of the starting shell doesn't take the machine down too.
func (c *Command) spawnDaemons(args []string) (*exec.Cmd, error) {
	daemons := exec.Command(prog.Name(), args...)
	daemons.Args[0] = "goes-daemons"
	daemons.Stdin = nil
	daemons.Stdout = nil
	daemons.Stderr = nil
	daemons.Dir = "/"
	daemons.Env = []string{
		"PATH=" + prog.Path(),
		"TERM=linux",
	}
	daemons.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
		Pgid:   0,
	}
	return daemons, daemons.Start()
}

// source runs the machine configuration script, /etc/goes/start if present
// and no other URL was given.
func (c *Command) source(start string) error {
	if len(start) == 0 {
		if _, err := os.Stat("/etc/goes/start"); err != nil {
			return nil
		}
		start = "/etc/goes/start"
	}
	if c.ConfHook != nil {
		if err := c.ConfHook(); err != nil {
			return err
		}
	}
	return c.g.Main("source", start)
}

func (c *Command) run(args ...string) error {
	x := c.g.Fork(args...)
	x.Stdin = os.Stdin
	x.Stdout = os.Stdout
	x.Stderr = os.Stderr
	x.Dir = "/"
	return x.Run()
}
