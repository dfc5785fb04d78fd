// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fields slices a string into args while combining single, double,
// or backslash escaped spaced arguments, e.g.:
//
//	echo hello\ beautiful\ world
//	echo "hello 'beautiful world'"
//	echo 'hello \"beautiful world\"'
package fields

import "strings"

func New(line string) (args []string) {
	var b strings.Builder
	var quote byte
	var escape, word bool
	flush := func() {
		if word {
			args = append(args, b.String())
			b.Reset()
			word = false
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escape:
			// Only an escaped space loses its backslash; anything
			// else stays verbatim for the command to interpret.
			if c != ' ' {
				b.WriteByte('\\')
			}
			b.WriteByte(c)
			escape = false
			word = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				b.WriteByte(c)
			}
		case c == '\\':
			escape = true
		case c == '\'' || c == '"':
			quote = c
			word = true
		case c == ' ' || c == '\t':
			flush()
		default:
			b.WriteByte(c)
			word = true
		}
	}
	if escape {
		b.WriteByte('\\')
		word = true
	}
	flush()
	return
}
