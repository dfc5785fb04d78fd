// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package test

import "testing"

// A Suite names the subtests run under a single Test.
type Suite []struct {
	Name string
	Func func(*testing.T)
}

// Run each suite entry as a subtest.
func (suite Suite) Run(t *testing.T) {
	for _, x := range suite {
		t.Run(x.Name, x.Func)
	}
}
