// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"strings"
)

type Usager interface {
	Usage() string
}

type helper interface {
	Help(...string) string
}

func Usage(v Usager) string {
	return fmt.Sprint("usage:\t", strings.TrimSpace(v.Usage()))
}

func (g *Goes) Usage() string {
	usage := g.USAGE
	if len(usage) == 0 {
		usage = `
	goes COMMAND [ ARGS ]...
	goes COMMAND -[-]HELPER [ ARGS ]...
	goes HELPER [ COMMAND ] [ ARGS ]...
	goes [ -x ] [[ -f ][ - | SCRIPT ]]

	HELPER := { apropos | complete | help | man | usage }`
	}
	return usage
}

// Help returns the named command's help text, its usage when the command
// has none, or the usage of this goes when no argument names a command.
func (g *Goes) Help(args ...string) string {
	g.swap(args)
	g.shift(args)
	if len(args) > 0 {
		if v, found := g.ByName[args[0]]; found {
			if method, found := v.(helper); found {
				return method.Help(args[1:]...)
			}
			return Usage(v)
		}
	}
	return Usage(g)
}

func (g *Goes) help(args ...string) error {
	if h := g.Help(args...); len(h) > 0 {
		fmt.Println(h)
	}
	return nil
}

func (g *Goes) usage(args ...string) error {
	var u Usager = g
	if len(args) > 0 {
		u = g.ByName[args[0]]
		if u == nil {
			return fmt.Errorf("%s: not found", args[0])
		}
	}
	fmt.Println(Usage(u))
	return nil
}
