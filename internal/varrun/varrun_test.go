// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package varrun

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
)

func TestCreateOutsideDir(t *testing.T) {
	_, err := Create("/tmp/fanctld.pid")
	test.Assert{t}.Error(err, `/tmp/fanctld.pid: not in "/run/goes"`)
}

func TestNewNotRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("you are root")
	}
	if err := New(filepath.Join(Dir, "test")); err != ErrNotRoot {
		t.Fatal(err)
	}
}

func TestNewCreate(t *testing.T) {
	assert := test.Assert{t}
	assert.YoureRoot()
	dir := filepath.Join(Dir, "varrun-test")
	assert.Nil(New(dir))
	t.Cleanup(func() { os.RemoveAll(dir) })
	f, err := Create(filepath.Join(dir, "pid"))
	assert.Nil(err)
	f.Close()
}
