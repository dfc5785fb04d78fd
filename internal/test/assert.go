// Copyright © 2015-2017 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package test

import (
	"os"
	"regexp"
	"testing"
)

// Assert wraps a testing.Test or Benchmark with several assertions.
type Assert struct {
	testing.TB
}

// Nil asserts that there is no error.
func (assert Assert) Nil(err error) {
	assert.Helper()
	if err != nil {
		assert.Fatal(err)
	}
}

// Error asserts that err matches want, which may be an error compared by
// identity, an exact string, or a *regexp.Regexp applied to err.Error().
func (assert Assert) Error(err error, want interface{}) {
	assert.Helper()
	switch want := want.(type) {
	case error:
		if err != want {
			assert.Fatalf("have %v, want %q", err, want.Error())
		}
	case string:
		if err == nil || err.Error() != want {
			assert.Fatalf("have %v, want %q", err, want)
		}
	case *regexp.Regexp:
		if err == nil || !want.MatchString(err.Error()) {
			assert.Fatalf("have %v, want @(%s)", err, want.String())
		}
	default:
		assert.Fatalf("can't match %T", want)
	}
}

// Equal asserts string equality.
func (assert Assert) Equal(s, want string) {
	assert.Helper()
	if s != want {
		assert.Fatalf("have %q,\n\twant %q", s, want)
	}
}

// Match asserts that s matches the given pattern.
func (assert Assert) Match(s, pattern string) {
	assert.Helper()
	if !regexp.MustCompile(pattern).MatchString(s) {
		assert.Fatalf("have %q,\n\twant @(%s)", s, pattern)
	}
}

// True asserts flag.
func (assert Assert) True(t bool) {
	assert.Helper()
	if !t {
		assert.Fatal("not true")
	}
}

// False is not True.
func (assert Assert) False(t bool) {
	assert.Helper()
	if t {
		assert.Fatal("not false")
	}
}

// YoureRoot skips the calling test if EUID != 0.
func (assert Assert) YoureRoot() {
	assert.Helper()
	if os.Geteuid() != 0 {
		assert.Skip("need root")
	}
}
