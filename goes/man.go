// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"strings"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/lang"
)

type maner interface {
	Man() lang.Alt
}

var section = struct {
	name, synopsis lang.Alt
}{
	name: lang.Alt{
		lang.EnUS: "NAME",
	},
	synopsis: lang.Alt{
		lang.EnUS: "SYNOPSIS",
	},
}

func (g *Goes) Man() lang.Alt {
	if g.MAN != nil {
		return g.MAN
	}
	return lang.Alt{
		lang.EnUS: `
OPTIONS
	-x	trace each interpreted command
	-f	keep interpreting a script after errors
	-	interpret a standard input script
	URL	interpret the referenced script

SEE ALSO
	goes apropos [COMMAND], goes man COMMAND`,
	}
}

func (g *Goes) man(args ...string) error {
	cmds := []cmd.Cmd{g}
	if len(args) > 0 {
		cmds = cmds[:0]
		for i, arg := range args {
			v := g.ByName[arg]
			if v == nil {
				if i == 0 {
					return fmt.Errorf("%s: not found", arg)
				}
				break
			}
			cmds = append(cmds, v)
		}
	}
	for i, v := range cmds {
		if i > 0 {
			fmt.Println()
		}
		page(v)
	}
	return nil
}

// page prints the man page of v: NAME and SYNOPSIS come from its String,
// Apropos, and Usage methods with its own Man text, if any, following.
func page(v cmd.Cmd) {
	fmt.Print(section.name, "\n\t", v, " - ", v.Apropos(), "\n\n",
		section.synopsis, "\n\t", strings.TrimSpace(v.Usage()), "\n")
	method, found := v.(maner)
	if !found {
		return
	}
	man := method.Man().String()
	if !strings.HasPrefix(man, "\n") {
		fmt.Println()
	}
	fmt.Print(man)
	if !strings.HasSuffix(man, "\n") {
		fmt.Println()
	}
}
