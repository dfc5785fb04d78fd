// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package liner adapts the platinasystems fork of Peter Harris' line
// editor to the cli prompter interface.
package liner

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
	"syscall"
	"unsafe"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/liner"

	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/internal/fields"
	"github.com/platinasystems/goes-kv260/internal/nocomment"
	"github.com/platinasystems/goes-kv260/internal/notliner"
)

// A Liner prompts through the wrapped line editor, feeding it a ring of
// the last 64 input lines. It falls back to a plain scanner when stdout
// isn't a terminal.
type Liner struct {
	history struct {
		buf   *bytes.Buffer
		lines []string
		i     int
	}
	fallback *notliner.Prompter
	goes     *goes.Goes
	s        *liner.State
}

func New(g *goes.Goes) *Liner {
	l := new(Liner)
	l.history.buf = new(bytes.Buffer)
	l.history.lines = make([]string, 0, 1<<6)
	l.s = liner.NewLiner()
	l.s.SetCompleter(l.complete)
	l.s.SetHelper(l.help)
	l.goes = g
	return l
}

func (l *Liner) Close() {
	l.s.Close()
}

// complete returns every completion of the given command line, read from
// the complete builtin.
func (l *Liner) complete(line string) (lines []string) {
	args := fields.New(nocomment.New(strings.TrimLeft(line, " \t")))
	if len(args) == 0 {
		return
	}
	lines = capture(func() {
		l.goes.Main(append([]string{"complete"}, args...)...)
	})
	// Expansions replace the last word only.
	if lsi := strings.LastIndex(line, " "); lsi > 0 {
		for i, t := range lines {
			lines[i] = line[:lsi+1] + t
		}
	}
	if len(lines) == 1 {
		lines[0] += " "
	}
	return
}

// capture runs f with stdout diverted to a pipe and returns the printed
// lines.
func capture(f func()) (lines []string) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return
	}
	go func() {
		t := os.Stdout
		defer func() { os.Stdout = t }()
		os.Stdout = pw
		f()
		pw.Close()
	}()
	s := bufio.NewScanner(pr)
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	pr.Close()
	return
}

// help prints the best available help text for the last arg of line.
func (l *Liner) help(line string) {
	args := fields.New(nocomment.New(strings.TrimLeft(line, " \t")))
	if len(args) == 0 {
		fmt.Println("Enter command.")
	} else {
		l.goes.Main(append([]string{"help"}, args...)...)
	}
}

func (l *Liner) Prompt(prompt string) (string, error) {
	if l.fallback != nil {
		return l.fallback.Prompt(prompt)
	}

	if isatty.IsTerminal(uintptr(syscall.Stdin)) {
		restore, err := saneTty()
		if err != nil {
			return "", err
		}
		defer restore()
	}

	l.loadHistory()

	line, err := l.s.Prompt(prompt)
	if err == nil {
		l.pushHistory(line)
	} else if err == liner.ErrNotTerminalOutput {
		l.fallback = notliner.New(os.Stdin, os.Stdout)
		line, err = l.fallback.Prompt(prompt)
	}
	return line, err
}

// loadHistory replays the ring into the line editor, oldest line first.
func (l *Liner) loadHistory() {
	if len(l.history.lines) == 0 {
		return
	}
	l.history.buf.Reset()
	if len(l.history.lines) < cap(l.history.lines) {
		for i := 0; i < l.history.i; i++ {
			fmt.Fprintln(l.history.buf, l.history.lines[i])
		}
	} else {
		for i := l.history.i + 1; ; i++ {
			i &= cap(l.history.lines) - 1
			if i == l.history.i {
				break
			}
			fmt.Fprintln(l.history.buf, l.history.lines[i])
		}
	}
	l.s.ReadHistory(l.history.buf)
}

func (l *Liner) pushHistory(line string) {
	if len(l.history.lines) < cap(l.history.lines) {
		l.history.lines = append(l.history.lines, line)
	} else {
		l.history.lines[l.history.i] = line
	}
	l.history.i++
	l.history.i &= cap(l.history.lines) - 1
}

// saneTty re-enables the break, bell, and utf8 input modes that a run
// command may have cleared, returning a restore of the original modes.
func saneTty() (func(), error) {
	var t syscall.Termios
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL,
		uintptr(syscall.Stdin),
		uintptr(syscall.TCGETS),
		uintptr(unsafe.Pointer(&t)))
	if errno != 0 {
		return nil, fmt.Errorf("TCGETS: %v", errno)
	}

	it := t
	restore := func() {
		syscall.Syscall(syscall.SYS_IOCTL,
			uintptr(syscall.Stdin),
			uintptr(syscall.TCSETS),
			uintptr(unsafe.Pointer(&it)))
	}

	t.Iflag |= syscall.BRKINT | syscall.IMAXBEL | syscall.IUTF8
	t.Lflag &^= syscall.IEXTEN

	_, _, errno = syscall.Syscall(syscall.SYS_IOCTL,
		uintptr(syscall.Stdin),
		uintptr(syscall.TCSETS),
		uintptr(unsafe.Pointer(&t)))
	if errno != 0 {
		restore()
		return nil, fmt.Errorf("TCSETS: %v", errno)
	}
	return restore, nil
}
