// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package pidfile records pids in /run/goes/pids.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/platinasystems/goes-kv260/internal/varrun"
)

const Dir = varrun.Dir + "/pids"

// New records the current pid in Dir + "/" + Base(name) and returns the
// recording's file name for eventual removal.
func New(name string) (string, error) {
	fn := Path(name)
	f, err := varrun.Create(fn)
	if err != nil {
		return "", err
	}
	defer f.Close()
	fmt.Fprintln(f, os.Getpid())
	return fn, nil
}

// Path returns Dir + "/" + Base(name) if name isn't already prefaced by Dir
func Path(name string) string {
	if filepath.Dir(name) != Dir {
		name = filepath.Join(Dir, filepath.Base(name))
	}
	return name
}

func RemoveAll() {
	pids, err := filepath.Glob(filepath.Join(Dir, "*"))
	if err == nil {
		for _, fn := range pids {
			os.Remove(fn)
		}
		os.Remove(Dir)
	}
}
