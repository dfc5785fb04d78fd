// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package daemons

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
)

func TestLogRing(t *testing.T) {
	assert := test.Assert{t}
	var dl daemonLog
	dl.init()
	fmt.Fprintln(&dl, "first")
	fmt.Fprintln(&dl, "<30>second")
	s := dl.String()
	assert.Match(s, "first\n")
	// the daemon.info priority prefix is stripped
	assert.Match(s, " second\n")
	if strings.Contains(s, "<30>") {
		t.Fatal("priority prefix kept")
	}
	if strings.Index(s, "first") > strings.Index(s, "second") {
		t.Fatal("out of order")
	}
}

func TestLogRingWrap(t *testing.T) {
	var dl daemonLog
	dl.init()
	for i := 0; i < logEntries+2; i++ {
		fmt.Fprintf(&dl, "entry %d\n", i)
	}
	s := dl.String()
	if strings.Contains(s, "entry 0\n") {
		t.Fatal("oldest entries kept")
	}
	// entry 2 through logEntries+1 remain, oldest first
	if strings.Index(s, "entry 2\n") >
		strings.Index(s, fmt.Sprintf("entry %d\n", logEntries+1)) {
		t.Fatal("out of order")
	}
}

func TestLogRingTruncates(t *testing.T) {
	assert := test.Assert{t}
	var dl daemonLog
	dl.init()
	long := strings.Repeat("x", 2*logCap) + "\n"
	n, err := dl.Write([]byte(long))
	assert.Nil(err)
	if n != len(long) {
		t.Fatal("short write:", n)
	}
	assert.Match(dl.String(), `x+\.\.\.`)
}

func TestPids(t *testing.T) {
	assert := test.Assert{t}
	got, err := pids([]string{"1", "42"})
	assert.Nil(err)
	if len(got) != 2 || got[0] != 1 || got[1] != 42 {
		t.Fatal("pids:", got)
	}
	got, err = pids([]string{})
	assert.Nil(err)
	if len(got) != 0 {
		t.Fatal("pids:", got)
	}
	_, err = pids([]string{"fanctld"})
	assert.Error(err, regexp.MustCompile("^fanctld: "))
}
