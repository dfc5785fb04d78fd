// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package prog names the current program along with its minimal PATH.
// Results are cached after first use.
package prog

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Install is the path this program runs from once installed; machines
// override it in their main package.
var Install = "/usr/bin/goes"

var cache struct{ base, name, path string }

// Base returns the file name of the current executable.
func Base() string {
	if len(cache.base) == 0 {
		cache.base = filepath.Base(Name())
	}
	return cache.base
}

// Name returns the resolved path of the current executable.
func Name() string {
	if len(cache.name) > 0 {
		return cache.name
	}
	if strings.HasSuffix(os.Args[0], ".test") {
		panic("can't find our name under tests")
	}
	name, err := os.Readlink("/proc/self/exe")
	if err != nil {
		name = os.Args[0]
	}
	cache.name = name
	return name
}

// Command returns an exec.Cmd that reruns this same executable with the
// given args; args[0] becomes the new process's argv[0].
func Command(args ...string) (cmd *exec.Cmd) {
	n := Name()
	cmd = exec.Command(n, args[1:]...)
	cmd.Args[0] = args[0]
	return
}

// Path returns the spare PATH that goes sets for its children, extended
// with this executable's directory when it runs from somewhere else.
func Path() string {
	if len(cache.path) == 0 {
		cache.path = "/bin:/usr/bin"
		if dir := filepath.Dir(Name()); dir != "/bin" &&
			dir != "/usr/bin" {
			cache.path += ":" + dir
		}
	}
	return cache.path
}
