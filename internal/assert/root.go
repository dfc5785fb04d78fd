// Copyright © 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package assert provides the run condition checks common to goes commands.
package assert

import (
	"errors"
	"os"
)

var ErrNotRoot = errors.New("you aren't root")

// Root returns ErrNotRoot unless the effective user is root.
func Root() error {
	if os.Geteuid() != 0 {
		return ErrNotRoot
	}
	return nil
}
