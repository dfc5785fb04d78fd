// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package test

import (
	"flag"
	"os"
	"strings"
	"syscall"
)

var ismain = flag.Bool("test.main", false, "run main() instead of test(s)")

// Main diverts a "-test.main" run to the given main with os.Args trimmed
// of the program name and any leading -test.* options, exiting when it
// returns. It is a nop in a normal test run.
func Main(main func()) {
	if !*ismain {
		return
	}
	args := os.Args[1:]
	for len(args) > 0 && strings.HasPrefix(args[0], "-test.") {
		args = args[1:]
	}
	os.Args = args
	main()
	syscall.Exit(0)
}
