// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/lang"
)

type aproposer interface {
	Apropos() lang.Alt
}

func (g *Goes) Apropos() lang.Alt {
	apropos := g.APROPOS
	if apropos == nil {
		apropos = lang.Alt{
			lang.EnUS: "a golang busybox",
		}
	}
	return apropos
}

// visible returns the sorted command names less the hidden ones, e.g. the
// goes-daemons server.
func (g *Goes) visible() []string {
	names := make([]string, 0, len(g.ByName))
	for _, name := range g.Names() {
		if !cmd.WhatKind(g.ByName[name]).IsHidden() {
			names = append(names, name)
		}
	}
	return names
}

func (g *Goes) apropos(args ...string) error {
	if len(args) == 0 {
		args = g.visible()
	}
	for i, name := range args {
		if len(name) == 0 {
			continue
		}
		v, found := g.ByName[name]
		if !found {
			if i == 0 {
				return fmt.Errorf("%s: not found", name)
			}
			continue
		}
		if len(name) < 16 {
			fmt.Printf("%-16s%s\n", name, v.Apropos())
		} else {
			fmt.Print(name, "\n\t\t", v.Apropos(), "\n")
		}
	}
	return nil
}
