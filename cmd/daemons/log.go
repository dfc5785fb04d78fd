// Copyright 2016-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package daemons

import (
	"bytes"
	"fmt"
	"sync"
	"time"
)

const (
	logEntries = 128
	logCap     = 160
)

type logEntry struct {
	t time.Time
	b []byte
}

// daemonLog is a ring of the last logEntries lines teed from the kernel
// logger. Writes come from any logging goroutine, reads from the Log rpc.
type daemonLog struct {
	mutex sync.Mutex
	r     []logEntry
	i     int
}

func (dl *daemonLog) init() {
	dl.r = make([]logEntry, logEntries)
	for i := range dl.r {
		dl.r[i].b = make([]byte, 0, logCap)
	}
}

func (dl *daemonLog) String() string {
	dl.mutex.Lock()
	defer dl.mutex.Unlock()
	buf := new(bytes.Buffer)
	for n, i := 0, dl.i; n < logEntries; n, i = n+1, i+1 {
		if i >= logEntries {
			i = 0
		}
		l := &dl.r[i]
		if l.t.IsZero() {
			continue
		}
		fmt.Fprint(buf, l.t.Format(time.Stamp), " ")
		buf.Write(l.b)
	}
	return buf.String()
}

func (dl *daemonLog) Write(b []byte) (int, error) {
	const ellipsis = "...\n"
	dl.mutex.Lock()
	defer dl.mutex.Unlock()
	l := &dl.r[dl.i]
	l.t = time.Now()
	line := b
	if len(line) > 4 && line[0] == '<' && line[3] == '>' {
		// skip the log priority prefix
		line = line[4:]
	}
	if len(line) > cap(l.b) {
		n := cap(l.b) - len(ellipsis)
		l.b = append(l.b[:0], line[:n]...)
		l.b = append(l.b, ellipsis...)
	} else {
		l.b = append(l.b[:0], line...)
	}
	if dl.i++; dl.i >= logEntries {
		dl.i = 0
	}
	return len(b), nil
}
