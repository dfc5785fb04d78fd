// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cmd defines the interface of all goes commands.
package cmd

import (
	"github.com/platinasystems/goes-kv260/lang"
)

type Cmd interface {
	Apropos() lang.Alt
	Main(...string) error
	// String returns the command name.
	String() string
	Usage() string
	/* Optional
	Close() error
	Complete(...string) []string
	Goes(*goes.Goes)
	Help(...string) string
	Kind() Kind
	Man() lang.Alt
	*/
}
