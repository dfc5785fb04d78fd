// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package notliner provides a plain prompter for shell scripts and ttys
// that liner can't drive.
package notliner

import (
	"bufio"
	"fmt"
	"io"
)

type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func New(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(r), out: w}
}

func (p *Prompter) Close() {}

func (p *Prompter) Prompt(prompt string) (string, error) {
	if p.out != nil {
		fmt.Fprint(p.out, prompt)
	}
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.in.Text(), nil
}
