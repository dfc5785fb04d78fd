// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package nocomment strips a string trailing '#' prefaced comments along with
// its leading whitespace. For example,
//
//	nocomment.New("hello # world") returns "hello"
//	nocomment.New("# hello world") returns ""
//	nocomment.New("hello#world") returns "hello#world"
//	nocomment.New("hello #world") returns "hello"
package nocomment

import "strings"

func New(s string) string {
	t := strings.TrimLeft(s, " \t")
	for i := 0; i < len(t); i++ {
		if t[i] != '#' {
			continue
		}
		if i == 0 {
			return ""
		}
		// A '#' within a word isn't a comment leader.
		if t[i-1] == ' ' || t[i-1] == '\t' {
			return strings.TrimRight(t[:i], " \t")
		}
	}
	return t
}
