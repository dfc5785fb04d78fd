// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fanctld drives the KV260 fan header from redis.
package fanctld

import (
	"fmt"
	"net/rpc"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/internal/axitimer"
	"github.com/platinasystems/goes-kv260/internal/dbg"
	"github.com/platinasystems/goes-kv260/internal/fdtimer"
	"github.com/platinasystems/goes-kv260/internal/mmio"
	"github.com/platinasystems/goes-kv260/lang"
)

var (
	pollInterval time.Duration = 5

	// The machine may pin the timer instead of device tree discovery.
	Base   uintptr
	Size   uint
	Period uint32

	// DefaultDuty is applied at daemon start. Full speed until an
	// operator asks for less.
	DefaultDuty = 1.0
)

type Command struct {
	Info
	Init func()
	init sync.Once
}

type Info struct {
	mutex sync.Mutex
	rpc   *atsock.RpcServer
	pub   *publisher.Publisher
	stop  chan struct{}
	lasts map[string]string

	tm      *fdtimer.Timer
	win     *mmio.Window
	pwm     *axitimer.Pwm
	duty    float64
	running bool
}

func (*Command) String() string { return "fanctld" }

func (*Command) Usage() string {
	return "fanctld [-debug] [-base PA] [-size LEN] [-period TICKS]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "fan PWM daemon for the KV260 carrier",
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}

	flag, args := flags.New(args, "-debug")
	parm, args := parms.New(args, "-base", "-size", "-period")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	if flag.ByName["-debug"] {
		axitimer.Dbg = dbg.FileLine
	}
	for _, x := range []struct {
		name string
		set  func(uint64)
	}{
		{"-base", func(u uint64) { Base = uintptr(u) }},
		{"-size", func(u uint64) { Size = uint(u) }},
		{"-period", func(u uint64) { Period = uint32(u) }},
	} {
		if s := parm.ByName[x.name]; len(s) > 0 {
			u, err := strconv.ParseUint(s, 0, 64)
			if err != nil {
				return fmt.Errorf("%s: %v", x.name, err)
			}
			x.set(u)
		}
	}

	err := redis.IsReady()
	if err != nil {
		return err
	}

	c.stop = make(chan struct{})
	c.lasts = make(map[string]string)

	if c.pub, err = publisher.New(); err != nil {
		return err
	}
	defer c.pub.Close()

	if c.rpc, err = atsock.NewRpcServer("fanctld"); err != nil {
		return err
	}
	defer c.rpc.Close()

	rpc.Register(&c.Info)
	err = redis.Assign(redis.DefaultHash+":fan.", "fanctld", "Info")
	if err != nil {
		return err
	}

	if err = c.open(); err != nil {
		return err
	}
	defer c.win.Close()

	// The fan keeps turning when the daemon exits; a restart finds the
	// timer running and reprograms it from scratch.
	if err = c.pwm.Configure(DefaultDuty); err != nil {
		return err
	}
	if err = c.pwm.Start(); err != nil {
		return err
	}
	c.duty = axitimer.Clamp(DefaultDuty)
	c.running = true

	t := time.NewTicker(pollInterval * time.Second)
	defer t.Stop()
	for {
		select {
		case <-c.stop:
			return nil
		case <-t.C:
			c.update()
		}
	}
}

func (c *Command) Close() error {
	close(c.stop)
	return nil
}

func (c *Command) open() error {
	if Base != 0 {
		size := Size
		if size == 0 {
			size = axitimer.Size
		}
		c.tm = &fdtimer.Timer{Name: "fixed", Base: Base, Size: size}
	} else {
		tm, err := fdtimer.Find()
		if err != nil {
			return err
		}
		c.tm = tm
	}
	win, err := mmio.Open(c.tm.Base, axitimer.Size)
	if err != nil {
		return err
	}
	c.win = win
	c.pwm = axitimer.New(win, Period)
	return nil
}

func (c *Command) update() {
	c.Info.mutex.Lock()
	defer c.Info.mutex.Unlock()
	c.Info.publish("fan.duty", strconv.FormatFloat(c.duty, 'f', 2, 64))
	c.Info.publish("fan.period", strconv.Itoa(int(c.pwm.Period())))
	c.Info.publish("fan.state", c.state())
	c.Info.publish("fan.base", fmt.Sprintf("%#x", c.tm.Base))
}

func (i *Info) state() string {
	if i.running {
		return "running"
	}
	return "stopped"
}

// Hset services redis hset of the assigned fan.* fields.
func (i *Info) Hset(a args.Hset, r *reply.Hset) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	v := strings.TrimRight(string(a.Value), "\n")

	switch a.Field {
	case "fan.duty":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		if err = i.pwm.Configure(f); err != nil {
			return err
		}
		if err = i.pwm.Start(); err != nil {
			return err
		}
		i.duty = axitimer.Clamp(f)
		i.running = true
		i.publish("fan.duty",
			strconv.FormatFloat(i.duty, 'f', 2, 64))
	case "fan.state":
		switch v {
		case "start":
			err := i.pwm.Start()
			if err == axitimer.ErrNotConfigured {
				if err = i.pwm.Configure(i.duty); err != nil {
					return err
				}
				i.duty = axitimer.Clamp(i.duty)
				err = i.pwm.Start()
			}
			if err != nil {
				return err
			}
			i.running = true
		case "stop":
			if err := i.pwm.Stop(); err != nil {
				return err
			}
			i.running = false
		default:
			return fmt.Errorf("%s: not start|stop", v)
		}
		i.publish("fan.state", i.state())
	default:
		return fmt.Errorf("Don't know how to set %s", a.Field)
	}
	*r = 1
	return nil
}

func (i *Info) publish(key, value string) {
	if value != i.lasts[key] {
		i.pub.Print(key, ": ", value)
		i.lasts[key] = value
	}
}
