// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/platinasystems/goes-kv260/internal/buildinfo"
	"github.com/platinasystems/goes-kv260/lang"
)

// License is reported by the license and copyright builtins.
const License = "GPL-2"

// Machines may publish the licenses and versions of their subsidiary
// packages through these Info hooks.
var Info struct {
	Licenses, Versions func() map[string]string
}

type ShowMachine string

func (name ShowMachine) String() string { return string(name) }
func (ShowMachine) Usage() string       { return "show machine" }

func (ShowMachine) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "print machine name",
	}
}

func (name ShowMachine) Main(...string) error {
	fmt.Println(name)
	return nil
}

func (g *Goes) copyright(_ ...string) error {
	return g.license()
}

func (*Goes) license(_ ...string) error {
	m := info(Info.Licenses)
	m["goes"] = License
	marshal(m)
	return nil
}

func (*Goes) version(_ ...string) error {
	m := info(Info.Versions)
	m["goes"] = buildinfo.New().Version()
	marshal(m)
	return nil
}

func info(f func() map[string]string) map[string]string {
	if f != nil {
		return f()
	}
	return make(map[string]string)
}

// marshal prints a lone value bare; anything more as sorted "key: value"
// lines with multiline values indented YAML style.
func marshal(m map[string]string) {
	if len(m) == 1 {
		for _, v := range m {
			fmt.Println(strings.TrimSpace(v))
		}
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sep string
	for _, k := range keys {
		s := strings.TrimSpace(m[k])
		if !strings.ContainsRune(s, '\n') {
			fmt.Print(sep, k, ": ", s, "\n")
		} else {
			fmt.Print(sep, k, ": |\n")
			for _, l := range strings.Split(s, "\n") {
				fmt.Print("  ", l, "\n")
			}
			sep = "\n"
		}
	}
}
