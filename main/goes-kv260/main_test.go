// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"github.com/platinasystems/redis"

	"github.com/platinasystems/goes-kv260/internal/test"
)

func Test(t *testing.T) {
	test.Main(main)
	test.Suite{
		{"machine", showMachine},
		{"hash", machineHash},
		{"license", license},
		{"apropos", apropos},
		{"usage", usageFlag},
		{"complete", complete},
		{"notfound", notFound},
	}.Run(t)
}

// grab runs f with os.Stdout teed to a pipe and returns what it printed.
func grab(t *testing.T, f func() error) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout := os.Stdout
	os.Stdout = w
	ferr := f()
	w.Close()
	os.Stdout = stdout
	b, rerr := ioutil.ReadAll(r)
	r.Close()
	if rerr != nil {
		t.Fatal(rerr)
	}
	if ferr != nil {
		t.Fatal(ferr)
	}
	return string(b)
}

func showMachine(t *testing.T) {
	test.Assert{t}.Equal(grab(t, func() error {
		return Goes.Main("show", "machine")
	}), "kv260\n")
}

func machineHash(t *testing.T) {
	test.Assert{t}.Equal(redis.DefaultHash, "kv260")
}

func license(t *testing.T) {
	test.Assert{t}.Equal(grab(t, func() error {
		return Goes.Main("license")
	}), "GPL-2\n")
}

func apropos(t *testing.T) {
	s := grab(t, func() error {
		return Goes.Main("apropos")
	})
	for _, sub := range []string{"fanctld", "redisd", "overlay", "sshd"} {
		if !strings.Contains(s, sub) {
			t.Fatal(sub, "missing from apropos")
		}
	}
}

func usageFlag(t *testing.T) {
	s := grab(t, func() error {
		return Goes.Main("overlay", "-usage")
	})
	if !strings.HasPrefix(s, "usage:\toverlay load NAME") {
		t.Fatal(s)
	}
}

func complete(t *testing.T) {
	cs := Goes.Complete("fan")
	test.Assert{t}.Equal(strings.Join(cs, " "), "fanctl fanctld")
}

func notFound(t *testing.T) {
	test.Assert{t}.Error(Goes.Main("flip"), "flip: command not found")
}
