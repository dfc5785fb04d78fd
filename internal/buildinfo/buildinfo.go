// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package buildinfo reports the main module version stamped into the binary.
package buildinfo

import "runtime/debug"

// Unavailable is the version of a binary built without module info,
// e.g. a plain "go build" of uncommitted work.
const Unavailable = "(devel)"

type BuildInfo struct {
	*debug.BuildInfo
}

func New() BuildInfo {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return BuildInfo{}
	}
	return BuildInfo{bi}
}

func (bi BuildInfo) Version() string {
	if bi.BuildInfo == nil {
		return Unavailable
	}
	return bi.Main.Version
}
