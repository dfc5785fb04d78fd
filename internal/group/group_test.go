// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package group

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestGid(t *testing.T) {
	dir, err := ioutil.TempDir("", "group")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	file := File
	t.Cleanup(func() { File = file })
	File = filepath.Join(dir, "group")
	err = ioutil.WriteFile(File, []byte(`root:x:0:
adm:x:4:syslog
plugdev:x:46:
malformed
gpio:x:badnum:
`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	for name, gid := range map[string]int{
		"adm":     4,
		"plugdev": 46,
		"root":    0,
		"foobar":  0,
		"gpio":    0,
	} {
		if got := Gid(name); got != gid {
			t.Error(name, "gid", got, "expect", gid)
		}
	}
}

func TestGidNoFile(t *testing.T) {
	file := File
	t.Cleanup(func() { File = file })
	File = "/does/not/exist"
	if gid := Gid("adm"); gid != 0 {
		t.Error("gid", gid)
	}
}
