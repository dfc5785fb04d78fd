// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fanctld

import (
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"

	"github.com/platinasystems/goes-kv260/internal/axitimer"
	"github.com/platinasystems/goes-kv260/internal/test"
)

type memPort map[uint]uint32

func (m memPort) R32(off uint) (uint32, error) { return m[off], nil }
func (m memPort) W32(off uint, v uint32) error { m[off] = v; return nil }

// testInfo plays redisd's end of the @redis.pub socket and returns an Info
// over a memory backed timer.
func testInfo(t *testing.T) (*Info, *net.UnixConn) {
	t.Helper()
	conn, err := atsock.ListenUnixgram("redis.pub")
	if err != nil {
		t.Skip(err)
	}
	t.Cleanup(func() { conn.Close() })
	pub, err := publisher.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pub.Close() })
	return &Info{
		pub:   pub,
		lasts: make(map[string]string),
		pwm:   axitimer.New(memPort{}, 0),
	}, conn
}

func recv(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	b := make([]byte, 4096)
	n, err := conn.Read(b)
	if err != nil {
		t.Fatal(err)
	}
	return string(b[:n])
}

func noRecv(t *testing.T, conn *net.UnixConn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	b := make([]byte, 4096)
	n, err := conn.Read(b)
	if err == nil {
		t.Fatal("unexpected publish:", string(b[:n]))
	}
	if ne, ok := err.(net.Error); !ok || !ne.Timeout() {
		t.Fatal(err)
	}
}

func TestHsetDuty(t *testing.T) {
	assert := test.Assert{t}
	i, conn := testInfo(t)
	var r reply.Hset
	assert.Nil(i.Hset(args.Hset{Field: "fan.duty",
		Value: []byte("0.25\n")}, &r))
	if r != 1 {
		t.Fatal("reply:", r)
	}
	assert.Equal(recv(t, conn), "fan.duty: 0.60")
	// Another request under the floor clamps to the same duty; the
	// unchanged value is not republished.
	assert.Nil(i.Hset(args.Hset{Field: "fan.duty",
		Value: []byte("0.30")}, &r))
	noRecv(t, conn)
	assert.Nil(i.Hset(args.Hset{Field: "fan.duty",
		Value: []byte("0.75")}, &r))
	assert.Equal(recv(t, conn), "fan.duty: 0.75")
	err := i.Hset(args.Hset{Field: "fan.duty", Value: []byte("fast")}, &r)
	assert.Error(err, regexp.MustCompile("invalid syntax"))
}

func TestHsetState(t *testing.T) {
	assert := test.Assert{t}
	i, conn := testInfo(t)
	var r reply.Hset
	// Starting a never configured timer configures the held duty first.
	assert.Nil(i.Hset(args.Hset{Field: "fan.state",
		Value: []byte("start")}, &r))
	assert.Equal(recv(t, conn), "fan.state: running")
	assert.Nil(i.Hset(args.Hset{Field: "fan.state",
		Value: []byte("stop")}, &r))
	assert.Equal(recv(t, conn), "fan.state: stopped")
	err := i.Hset(args.Hset{Field: "fan.state", Value: []byte("flip")}, &r)
	assert.Error(err, "flip: not start|stop")
	err = i.Hset(args.Hset{Field: "fan.rpm", Value: []byte("1")}, &r)
	assert.Error(err, "Don't know how to set fan.rpm")
}
