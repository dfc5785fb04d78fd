// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package varrun creates and removes [/var]/run/goes/... files.
package varrun

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/platinasystems/goes-kv260/internal/assert"
	"github.com/platinasystems/goes-kv260/internal/group"
)

const Dir = "/run/goes"

var cached = struct {
	ready bool
	adm   int
	euid  int
}{
	adm:  -1,
	euid: -1,
}

var perms = os.FileMode(0644)
var ErrNotRoot = assert.ErrNotRoot

func cache() {
	if !cached.ready {
		cached.ready = true
		cached.euid = os.Geteuid()
		cached.adm = group.Gid("adm")
	}
}

// chgrpAdm hands the path to the adm group so that its members may run
// unprivileged goes commands against it. A machine without the group keeps
// root ownership.
func chgrpAdm(path string) error {
	if cached.adm <= 0 {
		return nil
	}
	return os.Chown(path, cached.euid, cached.adm)
}

// Create the named file within Dir with proper permissions.
func Create(name string) (*os.File, error) {
	const flags = syscall.O_RDWR | syscall.O_CREAT | syscall.O_TRUNC
	if !strings.HasPrefix(name, Dir) {
		return nil, fmt.Errorf("%s: not in %q", name, Dir)
	}
	if err := New(filepath.Dir(name)); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(name, flags, perms)
	if err != nil {
		return nil, err
	}
	if cached.adm > 0 {
		f.Chown(cached.euid, cached.adm)
	}
	return f, nil
}

// New creates dir within Dir if it doesn't exist.
func New(dir string) error {
	cache()
	if cached.euid != 0 {
		return ErrNotRoot
	}
	if !strings.HasPrefix(dir, Dir) {
		return fmt.Errorf("%s: not in %q", dir, Dir)
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if _, err := os.Stat(Dir); os.IsNotExist(err) {
		if err = os.MkdirAll(Dir, os.FileMode(0755)); err != nil {
			return err
		}
		chgrpAdm(Dir)
	}
	// Daemons may race to make their common parent.
	err := os.Mkdir(dir, os.FileMode(0775))
	if err != nil && !os.IsExist(err) {
		return err
	}
	return chgrpAdm(dir)
}
