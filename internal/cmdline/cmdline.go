// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package cmdline maps the kernel parameters of /proc/cmdline.
package cmdline

import (
	"io/ioutil"
	"sort"
	"strings"
)

type Cmdline map[string]string

var File = "/proc/cmdline"

// New returns the sorted parameter names along with their map.
func New() (keys []string, m Cmdline, err error) {
	b, err := ioutil.ReadFile(File)
	if err != nil {
		return
	}
	m = make(Cmdline)
	for _, word := range split(strings.TrimSpace(string(b))) {
		m.Set(word)
	}
	keys = make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

// Set is m[KEY] = VALUE if kv has '=' and m[KEY] = "true" otherwise.
// Quotes around VALUE are dropped.
func (m Cmdline) Set(kv string) {
	eq := strings.Index(kv, "=")
	if eq <= 0 || eq == len(kv)-1 {
		m[kv] = "true"
		return
	}
	key, value := kv[:eq], kv[eq+1:]
	if len(value) > 1 && (value[0] == '\'' || value[0] == '"') &&
		value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	m[key] = value
}

// split breaks s on unquoted blanks.
func split(s string) (words []string) {
	var quote byte
	start := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ' ' || c == '\t' || c == '\n':
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return
}
