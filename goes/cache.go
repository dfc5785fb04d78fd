// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"sort"
	"sync"
)

type cache struct {
	sync.Mutex

	builtins map[string]func(...string) error
	names    []string
	path     []string
}

func (g *Goes) Builtins() map[string]func(...string) error {
	if g.cache.builtins == nil {
		g.cache.Lock()
		defer g.cache.Unlock()
		g.cache.builtins = map[string]func(...string) error{
			"apropos":   g.apropos,
			"complete":  g.complete,
			"copyright": g.copyright,
			"help":      g.help,
			"license":   g.license,
			"man":       g.man,
			"usage":     g.usage,
			"version":   g.version,
		}
	}
	return g.cache.builtins
}

// Names returns the sorted command names, rebuilt whenever commands were
// added to ByName since the last call.
func (g *Goes) Names() []string {
	if len(g.cache.names) < len(g.ByName) {
		g.cache.Lock()
		defer g.cache.Unlock()
		if len(g.cache.names) < len(g.ByName) {
			names := make([]string, 0, len(g.ByName))
			for k := range g.ByName {
				names = append(names, k)
			}
			sort.Strings(names)
			g.cache.names = names
		}
	}
	return g.cache.names
}

// Path of a sub-goes, e.g. "daemon status".
func (g *Goes) Path() []string {
	if g.parent != nil && len(g.cache.path) == 0 {
		g.cache.Lock()
		defer g.cache.Unlock()
		var path []string
		for p := g; p != nil; p = p.parent {
			path = append([]string{p.String()}, path...)
		}
		g.cache.path = path
	}
	return g.cache.path
}
