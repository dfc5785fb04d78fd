// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dbg is a stylized trace printer. A package that may need tracing
// keeps a Style variable, NoOp by default, that a debug flag raises:
//
//	var Dbg = dbg.NoOp
//	...
//	Dbg.Logf("w32 %#02x <- %#08x", off, v)
//
// NoOp prints nothing; neither does a call without args or with a nil first
// arg. An error first arg passes through as the return value so a trace may
// wrap a return statement.
package dbg

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

type Style int

const (
	NoOp     Style = iota
	Plain          // TEXT
	FileLine       // pwm.go:187: TEXT
)

// Writer takes the trace output; nil means os.Stdout.
var Writer io.Writer

func (style Style) String() string {
	switch style {
	case NoOp:
		return "NoOp"
	case Plain:
		return "Plain"
	case FileLine:
		return "FileLine"
	}
	return fmt.Sprint(int(style))
}

// Log prints the args like fmt.Println behind the style prefix.
func (style Style) Log(args ...interface{}) error {
	return style.emit(func() string { return fmt.Sprintln(args...) }, args)
}

// Logf prints the args like fmt.Printf behind the style prefix, newline
// terminated.
func (style Style) Logf(format string, args ...interface{}) error {
	return style.emit(func() string {
		return fmt.Sprintf(format, args...) + "\n"
	}, args)
}

func (style Style) emit(text func() string, args []interface{}) error {
	if len(args) == 0 || args[0] == nil {
		return nil
	}
	err, _ := args[0].(error)
	if style == NoOp {
		return err
	}
	buf := new(bytes.Buffer)
	if style == FileLine {
		// 2 skips emit and the Log or Logf wrapper.
		if _, file, line, ok := runtime.Caller(2); ok {
			fmt.Fprint(buf, filepath.Base(file), ":", line, ": ")
		}
	}
	buf.WriteString(text())
	w := Writer
	if w == nil {
		w = os.Stdout
		defer os.Stdout.Sync()
	}
	w.Write(buf.Bytes())
	return err
}
