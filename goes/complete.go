// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

type completer interface {
	Complete(...string) []string
}

func match(names []string, prefix string) (m []string) {
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			m = append(m, name)
		}
	}
	return
}

func (g *Goes) Complete(args ...string) (completions []string) {
	n := len(args)
	if n == 0 || len(args[0]) == 0 {
		return g.visible()
	}
	if v, found := g.ByName[args[0]]; found {
		if method, found := v.(completer); found {
			return method.Complete(args[1:]...)
		}
		completions, _ = filepath.Glob(args[n-1] + "*")
		return
	}
	if _, found := g.Builtins()[args[0]]; found {
		if n == 1 || len(args[n-1]) == 0 {
			return g.visible()
		}
		return match(g.visible(), args[n-1])
	}
	if n == 1 {
		completions = match(g.visible(), args[0])
		for builtin := range g.Builtins() {
			if strings.HasPrefix(builtin, args[0]) {
				completions = append(completions, builtin)
			}
		}
		sort.Strings(completions)
	}
	return
}

// complete prints each completion on its own line for shell consumption,
// e.g. with bash,
//
//	_goes() {
//		if [ -z ${COMP_WORDS[COMP_CWORD]} ] ; then
//			COMPREPLY=($(goes complete ${COMP_WORDS[@]:1} ''))
//		else
//			COMPREPLY=($(goes complete ${COMP_WORDS[@]:1}))
//		fi
//		return 0
//	}
func (g *Goes) complete(args ...string) error {
	for _, s := range g.Complete(args...) {
		fmt.Println(s)
	}
	return nil
}
