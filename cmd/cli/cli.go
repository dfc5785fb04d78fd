// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cli provides the machine's command line interpreter. It prompts
// tty input through the line editor, or reads a sourced URL, and runs each
// line through the goes command tree, forking all but the DontFork
// commands and builtins.
package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/url"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/cmd/cli/internal/liner"
	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/internal/fields"
	"github.com/platinasystems/goes-kv260/internal/nocomment"
	"github.com/platinasystems/goes-kv260/internal/notliner"
	"github.com/platinasystems/goes-kv260/lang"
)

type Command struct {
	Prompt string
	g      *goes.Goes
}

type prompter interface {
	Prompt(string) (string, error)
	Close()
}

func (*Command) String() string { return "cli" }

func (*Command) Usage() string {
	return "cli [-x] [-p PROMPT] [URL]"
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "command line interpreter",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	An incomplete shell with only this basic syntax:

		COMMAND [OPTION]... [ARG]...

	Commands and their arguments are blank separated; leading and
	trailing blanks are ignored.

	The '-x' flag traces each interpreted command.

	Given a URL, commands are sourced from the reference instead of
	prompted tty input.

COMMENTS
	Any text following a blank prefaced hash tag is ignored, e.g.:

		hset fan.duty 0.5 # half speed
	or,
		# a full line comment

ESCAPES
	A COMMAND extends to the next line by escaping the line end with
	the backslash character ('\'); the blank between arguments may be
	escaped the same way.

		echo with\ one\ argument\ having\ five\ spaces

QUOTATION
	Single or double quotes group an argument.

		echo "hello 'beautiful world'"
		echo 'hello \"beautiful world\"'`,
	}
}

func (c *Command) Goes(g *goes.Goes) { c.g = g }

func (c *Command) Main(args ...string) (err error) {
	if c.g == nil {
		panic("cli's goes is nil")
	}

	flag, args := flags.New(args, "-f", "-x", "-", "-no-liner")
	parm, args := parms.New(args, "-p")
	if s := parm.ByName["-p"]; len(s) > 0 {
		c.Prompt = s
	}

	defer func() {
		if cerr := c.closeDontForks(); err == nil {
			err = cerr
		}
	}()

	csig := make(chan os.Signal, 1)
	signal.Notify(csig, os.Interrupt)
	defer signal.Stop(csig)

	p, isScript, err := c.open(flag, args)
	if err != nil {
		return err
	}
	defer p.Close()

	for {
		select {
		case <-csig:
			fmt.Println("\nCommand interrupted")
		default:
		}
		line, perr := readline(p, c.prompt())
		if perr != nil {
			if perr == io.EOF {
				return nil
			}
			return perr
		}
		args := fields.New(nocomment.New(line))
		if len(args) == 0 {
			continue
		}
		if flag.ByName["-x"] {
			fmt.Println("+", strings.Join(args, " "))
		}
		err = c.run(args)
		c.g.Status = err
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// a forked command prints its own error
			if err.Error() != "exit status 1" {
				fmt.Fprintln(os.Stderr, err)
			}
			if isScript && !flag.ByName["-f"] {
				return nil
			}
		}
	}
}

// run executes the named command as a forked foreground job so that a
// wedged or crashed command can't take the shell with it. DontFork
// commands and the builtins stay in this process.
func (c *Command) run(args []string) error {
	v, found := c.g.ByName[args[0]]
	if !found || cmd.WhatKind(v).IsDontFork() {
		return c.g.Main(args...)
	}
	x := c.g.Fork(args...)
	x.Stdin = os.Stdin
	x.Stdout = os.Stdout
	x.Stderr = os.Stderr
	return x.Run()
}

// open returns the line source: the tty editor by default, plain stdin for
// scripts and dumb terminals, or the sourced URL.
func (c *Command) open(flag *flags.Flags, args []string) (
	prompter, bool, error) {
	switch len(args) {
	case 0:
		switch {
		case flag.ByName["-"]:
			return notliner.New(os.Stdin, nil), true, nil
		case flag.ByName["-no-liner"]:
			return notliner.New(os.Stdin, os.Stdout), false, nil
		}
		return liner.New(c.g), false, nil
	case 1:
		f, err := url.Open(args[0])
		if err != nil {
			return nil, false, err
		}
		return &script{notliner.New(f, nil), f}, true, nil
	}
	return nil, false, fmt.Errorf("%v: unexpected", args[1:])
}

// prompt is the -p parameter if given; otherwise the hostname at top level
// and the subcommand tree name below it.
func (c *Command) prompt() string {
	if len(c.Prompt) > 0 {
		return c.Prompt
	}
	if len(c.g.Path()) == 0 {
		if hn, err := os.Hostname(); err == nil {
			return hn + "> "
		}
	}
	return fmt.Sprint(c.g, "> ")
}

// closeDontForks closes every DontFork command with a Closer, returning the
// first error.
func (c *Command) closeDontForks() (err error) {
	for _, name := range c.g.Names() {
		v := c.g.ByName[name]
		if !cmd.WhatKind(v).IsDontFork() {
			continue
		}
		if m, found := v.(io.Closer); found {
			if t := m.Close(); err == nil {
				err = t
			}
		}
	}
	return
}

// readline prompts for a command, extending it while the line ends with an
// unescaped backslash.
func readline(p prompter, prompt string) (string, error) {
	line, err := p.Prompt(prompt)
	if err != nil {
		return "", err
	}
	for strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, "\\\\") {
		more, merr := p.Prompt("... ")
		if merr != nil {
			break
		}
		line = line[:len(line)-1] + strings.TrimLeft(more, " \t")
	}
	return line, nil
}

// script pairs the plain prompter with the sourced URL's closer.
type script struct {
	*notliner.Prompter
	f io.ReadCloser
}

func (s *script) Close() { s.f.Close() }
