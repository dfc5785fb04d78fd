// Copyright 2016-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package daemons

import (
	"fmt"
	"os"
	"strconv"

	"github.com/platinasystems/atsock"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/lang"
)

// Admin is the "daemon" subcommand tree. Each verb is a thin rpc client of
// the goes-daemons server.
var Admin = &goes.Goes{
	NAME:  "daemon",
	USAGE: "daemon COMMAND",
	APROPOS: lang.Alt{
		lang.EnUS: "daemon admin",
	},
	ByName: verbs(
		verb{"log", "[TEXT]...",
			"append and show daemon log", logMain},
		verb{"restart", "[PID]...",
			"daemon restart", signal("Daemons.Restart")},
		verb{"start", "DAEMON [ARG]...",
			"start a daemon", startMain},
		verb{"status", "",
			"show daemons", statusMain},
		verb{"stop", "[PID]...",
			"daemon stop", signal("Daemons.Stop")},
	),
}

var empty = struct{}{}

// A verb runs one admin request against the goes-daemons server.
type verb struct {
	name    string
	args    string
	apropos string
	main    func(...string) error
}

func verbs(vs ...verb) map[string]cmd.Cmd {
	m := make(map[string]cmd.Cmd, len(vs))
	for _, v := range vs {
		v := v
		m[v.name] = &v
	}
	return m
}

func (v *verb) String() string { return v.name }

func (v *verb) Usage() string {
	u := "daemon " + v.name
	if len(v.args) > 0 {
		u += " " + v.args
	}
	return u
}

func (v *verb) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: v.apropos}
}

func (v *verb) Main(args ...string) error { return v.main(args...) }

// call dials the goes-daemons server and invokes the named Daemons method.
func call(method string, args, reply interface{}) error {
	cl, err := atsock.NewRpcClient(sockname())
	if err != nil {
		return err
	}
	defer cl.Close()
	return cl.Call(method, args, reply)
}

// signal returns a main that sends the listed pids, or none for every
// daemon, to the given stop or restart method.
func signal(method string) func(...string) error {
	return func(args ...string) error {
		pids, err := pids(args)
		if err != nil {
			return err
		}
		return call(method, pids, &empty)
	}
}

func pids(args []string) ([]int, error) {
	pids := make([]int, len(args))
	for i, arg := range args {
		pid, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", arg, err)
		}
		pids[i] = pid
	}
	return pids, nil
}

func logMain(args ...string) error {
	var s string
	if err := call("Daemons.Log", args, &s); err != nil {
		return err
	}
	os.Stdout.WriteString(s)
	return nil
}

func startMain(args ...string) error {
	if len(args) < 1 {
		return fmt.Errorf("missing DAEMON [ARG]...")
	}
	return call("Daemons.Start", args, &empty)
}

func statusMain(...string) error {
	var s string
	if err := call("Daemons.List", empty, &s); err != nil {
		return err
	}
	os.Stdout.WriteString(s)
	return nil
}
