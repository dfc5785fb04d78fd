// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes, combined with a compatibly configured Linux kernel, provides a
// monolithic embedded system.
package goes

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"unicode/utf8"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/internal/pidfile"
	"github.com/platinasystems/goes-kv260/internal/prog"
	"github.com/platinasystems/goes-kv260/lang"
)

const (
	VerboseQuiet = iota
	VerboseVerify
	VerboseDebug
)

var (
	// Exit may be reassigned for test
	Exit = os.Exit

	// WG waits for all daemon goroutines before process exit.
	WG sync.WaitGroup

	// Stop is closed by a daemon's SIGTERM handler to signal its
	// goroutines.
	Stop = make(chan struct{})
)

type Goes struct {
	// NAME, USAGE, APROPOS, and MAN are command documentation.
	NAME, USAGE  string
	APROPOS, MAN lang.Alt

	ByName map[string]cmd.Cmd

	// Status is the error, if any, of the last command run by a shell.
	Status error

	Verbosity int

	parent *Goes

	cache cache
}

type goeser interface {
	Goes(*Goes)
}

func (g *Goes) String() string {
	name := g.NAME
	if len(name) == 0 {
		name = "goes"
	}
	return name
}

// Goes sets the parent of a sub command tree.
func (g *Goes) Goes(parent *Goes) { g.parent = parent }

// Fork returns an exec.Cmd ready to Run or Output this program with the
// given args.
func (g *Goes) Fork(args ...string) *exec.Cmd {
	if g.parent != nil {
		args = append(g.Path()[1:], args...)
	}
	return prog.Command(args...)
}

// Main runs the arg[0] command in the current context.
// When run w/o args this uses os.Args and exits instead of returns on error.
// Use cli to iterate command input.
//
// If the args have "-h", "-help", or "--help", this runs
// ByName["help"].Main(args...) to print text.
//
// Similarly for "-apropos", "-complete", "-man", and "-usage".
//
// If the named command is a daemon, this records its pid then runs it in the
// current process with a SIGTERM handler that closes Stop.
func (g *Goes) Main(args ...string) (err error) {
	var isDaemon bool

	if len(args) == 0 {
		args = os.Args
		if len(args) == 0 {
			return
		}
		defer func() {
			if err == io.EOF {
				err = nil
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n",
					prog.Base(), err)
				Exit(1)
			}
		}()
		if _, found := g.ByName[args[0]]; !found {
			if args[0] == prog.Install && len(args) > 2 {
				buf, terr := ioutil.ReadFile(args[1])
				if terr == nil && utf8.Valid(buf) {
					args = []string{"source", args[1]}
				} else {
					args = args[1:]
				}
			} else {
				args = args[1:]
			}
		}
	} else {
		defer func() {
			if err == io.EOF {
				err = nil
			}
			if err != nil && isDaemon {
				log.Print("daemon", "err", err)
			}
		}()
	}

	if len(args) < 1 {
		args = []string{"cli"}
	}

	name := args[0]
	args = args[1:]
	flag, args := flags.New(args,
		[]string{"-h", "-help", "--help"},
		[]string{"-apropos", "--apropos"},
		[]string{"-complete", "--complete"},
		[]string{"-man", "--man"},
		[]string{"-usage", "--usage"})
	targs := []string{name}
	switch {
	case flag.ByName["-h"]:
		name = "help"
		args = targs
	case flag.ByName["-apropos"]:
		name = "apropos"
		args = targs
	case flag.ByName["-complete"]:
		name = "complete"
		if len(args) == 0 {
			args = append(targs, args...)
		} else {
			args = targs
		}
	case flag.ByName["-man"]:
		name = "man"
		args = targs
	case flag.ByName["-usage"]:
		name = "usage"
		args = targs
	}

	v, found := g.ByName[name]
	if !found {
		if b, bfound := g.Builtins()[name]; bfound {
			err = b(args...)
			return
		}
		err = fmt.Errorf("%s: command not found", name)
		return
	}
	if method, mfound := v.(goeser); mfound {
		method.Goes(g)
	}
	if !cmd.WhatKind(v).IsDaemon() {
		err = v.Main(args...)
		return
	}

	isDaemon = true
	pidfn, terr := pidfile.New(name)
	if terr != nil {
		err = terr
		return
	}
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGTERM)
	go terminate(v, sigch)
	err = v.Main(args...)
	WG.Wait()
	signal.Stop(sigch)
	os.Remove(pidfn)
	return
}

func terminate(v cmd.Cmd, ch chan os.Signal) {
	for sig := range ch {
		if sig == syscall.SIGTERM {
			close(Stop)
			if method, found := v.(io.Closer); found {
				method.Close()
			}
			break
		}
	}
}

// swap hyphen prefaced helper flags with command, e.g.
//
//	COMMAND -HELPER [ARGS]...
//
// becomes
//
//	HELPER COMMAND [ARGS]...
func (g *Goes) swap(args []string) {
	n := len(args)
	if n > 0 && strings.HasPrefix(args[0], "-") {
		opt := strings.TrimLeft(args[0], "-")
		if _, found := g.Builtins()[opt]; found {
			args[0] = opt
		}
	} else if n > 1 && strings.HasPrefix(args[1], "-") {
		opt := strings.TrimLeft(args[1], "-")
		if _, found := g.Builtins()[opt]; found {
			args[1] = args[0]
			args[0] = opt
		}
	}
}

// shift rotates a leading builtin to the end so that the named command
// resolves first, e.g.
//
//	help COMMAND [ARGS]...
//
// becomes
//
//	COMMAND [ARGS]... help
func (g *Goes) shift(args []string) {
	if len(args) > 1 {
		if _, found := g.Builtins()[args[0]]; found {
			s := args[0]
			copy(args, args[1:])
			args[len(args)-1] = s
		}
	}
}
