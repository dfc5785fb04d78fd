// Copyright 2016-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package daemons

import (
	"net/rpc"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/platinasystems/atsock"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/lang"
)

type Server struct {
	// Init lists the goes command of each daemon that runs from start,
	// redisd first. Dependent daemons gate their setup on
	//	redis.IsReady()
	// which blocks until redisd publishes "redis.ready: true".
	Init [][]string
	Daemons
}

func (*Server) String() string { return "goes-daemons" }

func (*Server) Usage() string { return "goes-daemons" }

func (*Server) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "supervise the machine daemons",
	}
}

func (c *Server) Goes(g *goes.Goes) { c.Daemons.goes = g }

func (*Server) Kind() cmd.Kind { return cmd.Hidden }

func (c *Server) Main(args ...string) error {
	c.Daemons.init()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM)
	defer signal.Stop(sig)

	rpcsrv, err := atsock.NewRpcServer(sockname())
	if err != nil {
		return err
	}
	defer rpcsrv.Close()
	c.rpc = rpcsrv

	// Register before the Init daemons start so that an early daemon
	// admin rpc finds the methods rather than an empty server.
	rpc.Register(&c.Daemons)

	for i, dargs := range c.Init {
		if i == 0 && len(args) > 0 {
			// start forwards its trailing options, e.g. -port,
			// to the lead daemon, redisd.
			dargs = append(append([]string{}, dargs...), args...)
		}
		c.Daemons.start(0, dargs...)
	}

	for {
		select {
		case <-c.Daemons.done:
			// delay for the rpc Stop reply
			time.Sleep(100 * time.Millisecond)
			return nil
		case <-sig:
			c.Daemons.Stop([]int{}, &empty)
		}
	}
}
