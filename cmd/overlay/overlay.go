// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package overlay provides the cli command to program the KV260
// programmable logic and apply its device tree overlay.
package overlay

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/platinasystems/url"

	"github.com/platinasystems/goes-kv260/internal/assert"
	"github.com/platinasystems/goes-kv260/lang"
)

// DefaultName is the PL design holding the fan controller timer.
const DefaultName = "kv260_fanctrl"

// Sysfs and firmware locations, variables so tests may divert them.
var (
	FpgaManager = "/sys/class/fpga_manager/fpga0"
	ConfigFS    = "/sys/kernel/config/device-tree/overlays"
	FirmwareDir = "/lib/firmware"
)

type Command struct{}

func (Command) String() string { return "overlay" }

func (Command) Usage() string {
	return `
	overlay load NAME [FROM]
	overlay unload [NAME]
	overlay status`
}

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "load and unload programmable logic overlays",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	overlay load NAME [FROM]
		Program the programmable logic with NAME.bit.bin, then
		apply the NAME.dtbo device tree overlay. With FROM, a
		directory or URL prefix, both files are first copied to
		/lib/firmware; without it they must already be there.

	overlay unload [NAME]
		Remove the named device tree overlay, or every overlay.
		The programmable logic keeps its last program.

	overlay status
		Print the programmable logic state and applied overlays.

	The fan controller timer lives in the programmable logic, so its
	overlay must be loaded before fanctld starts.`,
	}
}

func (Command) Main(args ...string) error {
	if len(args) == 0 {
		return fmt.Errorf("VERB: missing")
	}
	switch args[0] {
	case "load":
		if len(args) < 2 {
			return fmt.Errorf("NAME: missing")
		}
		if len(args) > 3 {
			return fmt.Errorf("%v: unexpected", args[3:])
		}
		if err := assert.Root(); err != nil {
			return err
		}
		from := ""
		if len(args) == 3 {
			from = args[2]
		}
		return load(args[1], from)
	case "unload":
		if len(args) > 2 {
			return fmt.Errorf("%v: unexpected", args[2:])
		}
		if err := assert.Root(); err != nil {
			return err
		}
		if len(args) == 2 {
			return unload(args[1])
		}
		return unloadAll()
	case "status":
		if len(args) > 1 {
			return fmt.Errorf("%v: unexpected", args[1:])
		}
		return status()
	}
	return fmt.Errorf("%s: command not found", args[0])
}

func load(name, from string) error {
	dn := filepath.Join(ConfigFS, name)
	if _, err := os.Stat(dn); err == nil {
		return fmt.Errorf("%s: already loaded", name)
	}
	bin := name + ".bit.bin"
	dtbo := name + ".dtbo"
	if len(from) > 0 {
		for _, fn := range []string{bin, dtbo} {
			if err := fetch(from, fn); err != nil {
				return err
			}
		}
	}
	// Full reconfiguration; the kernel finds the bitstream under
	// /lib/firmware.
	if err := echo("0", filepath.Join(FpgaManager, "flags")); err != nil {
		return err
	}
	if err := echo(bin, filepath.Join(FpgaManager, "firmware")); err != nil {
		return err
	}
	state, err := fpgaState()
	if err != nil {
		return err
	}
	if state != "operating" {
		return fmt.Errorf("fpga0: %s", state)
	}
	if err := os.Mkdir(dn, 0755); err != nil {
		return err
	}
	if err := echo(dtbo, filepath.Join(dn, "path")); err != nil {
		os.Remove(dn)
		return err
	}
	return nil
}

func unload(name string) error {
	dn := filepath.Join(ConfigFS, name)
	if _, err := os.Stat(dn); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: not loaded", name)
		}
		return err
	}
	return os.Remove(dn)
}

func unloadAll() error {
	fis, err := ioutil.ReadDir(ConfigFS)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, fi := range fis {
		if err = os.Remove(filepath.Join(ConfigFS, fi.Name())); err != nil {
			return err
		}
	}
	return nil
}

func status() error {
	state, err := fpgaState()
	if err != nil {
		return err
	}
	fmt.Println("fpga0:", state)
	fis, err := ioutil.ReadDir(ConfigFS)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	names := make([]string, 0, len(fis))
	for _, fi := range fis {
		names = append(names, fi.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println("overlay:", name)
	}
	return nil
}

// fetch copies a firmware file from a directory or URL prefix into
// FirmwareDir.
func fetch(from, fn string) error {
	r, err := url.Open(strings.TrimSuffix(from, "/") + "/" + fn)
	if err != nil {
		return err
	}
	defer r.Close()
	w, err := url.Create(filepath.Join(FirmwareDir, fn))
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = io.Copy(w, r)
	return err
}

// echo writes a sysfs attribute. No trailing newline; the configfs
// overlay path attribute takes the value verbatim.
func echo(v, fn string) error {
	return ioutil.WriteFile(fn, []byte(v), 0644)
}

func fpgaState() (string, error) {
	b, err := ioutil.ReadFile(filepath.Join(FpgaManager, "state"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
