// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package overlay

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
)

func scratch(t *testing.T, state string) (src string) {
	t.Helper()
	dir, err := ioutil.TempDir("", "overlay")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	fpga, cfs, fw := FpgaManager, ConfigFS, FirmwareDir
	t.Cleanup(func() {
		FpgaManager, ConfigFS, FirmwareDir = fpga, cfs, fw
	})
	FpgaManager = filepath.Join(dir, "fpga0")
	ConfigFS = filepath.Join(dir, "overlays")
	FirmwareDir = filepath.Join(dir, "firmware")
	src = filepath.Join(dir, "src")
	for _, dn := range []string{FpgaManager, ConfigFS, FirmwareDir, src} {
		if err = os.Mkdir(dn, 0755); err != nil {
			t.Fatal(err)
		}
	}
	write(t, filepath.Join(FpgaManager, "state"), state)
	write(t, filepath.Join(src, DefaultName+".bit.bin"), "bitstream")
	write(t, filepath.Join(src, DefaultName+".dtbo"), "dtbo")
	return
}

func write(t *testing.T, fn, v string) {
	t.Helper()
	if err := ioutil.WriteFile(fn, []byte(v), 0644); err != nil {
		t.Fatal(err)
	}
}

func read(t *testing.T, fn string) string {
	t.Helper()
	b, err := ioutil.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestLoad(t *testing.T) {
	assert := test.Assert{t}
	src := scratch(t, "operating\n")
	assert.Nil(load(DefaultName, src))
	assert.Equal(read(t, filepath.Join(FpgaManager, "flags")), "0")
	assert.Equal(read(t, filepath.Join(FpgaManager, "firmware")),
		DefaultName+".bit.bin")
	assert.Equal(read(t,
		filepath.Join(FirmwareDir, DefaultName+".bit.bin")),
		"bitstream")
	assert.Equal(read(t, filepath.Join(ConfigFS, DefaultName, "path")),
		DefaultName+".dtbo")
	assert.Error(load(DefaultName, src), DefaultName+": already loaded")
}

func TestLoadNotOperating(t *testing.T) {
	assert := test.Assert{t}
	src := scratch(t, "power off\n")
	assert.Error(load(DefaultName, src), "fpga0: power off")
	_, err := os.Stat(filepath.Join(ConfigFS, DefaultName))
	if !os.IsNotExist(err) {
		t.Fatal("half applied overlay:", err)
	}
}

func TestUnload(t *testing.T) {
	assert := test.Assert{t}
	src := scratch(t, "operating")
	assert.Nil(load(DefaultName, src))
	// Real configfs overlay dirs rmdir clean; the scratch dir needs the
	// attribute file gone first.
	assert.Nil(os.Remove(filepath.Join(ConfigFS, DefaultName, "path")))
	assert.Nil(unload(DefaultName))
	assert.Error(unload(DefaultName), DefaultName+": not loaded")
}

func TestMainArgs(t *testing.T) {
	assert := test.Assert{t}
	c := Command{}
	assert.Error(c.Main(), "VERB: missing")
	assert.Error(c.Main("load"), "NAME: missing")
	assert.Error(c.Main("status", "x"), "[x]: unexpected")
	assert.Error(c.Main("flip"), "flip: command not found")
}
