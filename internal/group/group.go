// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package group finds group ids in /etc/group.
package group

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// File is the group database, a variable so tests may divert it.
var File = "/etc/group"

// Gid returns the id of the named group, or 0 if there is no such group.
func Gid(name string) int {
	f, err := os.Open(File)
	if err != nil {
		return 0
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), ":")
		if len(fields) < 3 || fields[0] != name {
			continue
		}
		if gid, err := strconv.Atoi(fields[2]); err == nil {
			return gid
		}
	}
	return 0
}
