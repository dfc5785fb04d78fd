// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dbg

import (
	"bytes"
	"os"
	"testing"

	"github.com/platinasystems/goes-kv260/internal/test"
)

func TestStyles(t *testing.T) {
	assert := test.Assert{t}
	buf := new(bytes.Buffer)
	Writer = buf
	defer func() { Writer = nil }()

	NoOp.Log("quiet")
	NoOp.Logf("%s", "quiet")
	assert.Equal(buf.String(), "")

	Plain.Log("printed")
	Plain.Logf("%s %d", "formatted", 1)
	Plain.Log(nil, "not", "printed")
	assert.Equal(buf.String(), "printed\nformatted 1\n")

	buf.Reset()
	FileLine.Log("here")
	assert.Match(buf.String(), `^dbg_test\.go:[0-9]+: here\n$`)
}

func TestErrPassthrough(t *testing.T) {
	assert := test.Assert{t}
	buf := new(bytes.Buffer)
	Writer = buf
	defer func() { Writer = nil }()

	assert.Nil(NoOp.Log(nil))
	assert.Error(NoOp.Log(os.ErrInvalid), os.ErrInvalid)
	assert.Equal(buf.String(), "")

	assert.Error(Plain.Logf("%v: %s", os.ErrInvalid, "context"),
		os.ErrInvalid)
	assert.Equal(buf.String(), "invalid argument: context\n")
}
