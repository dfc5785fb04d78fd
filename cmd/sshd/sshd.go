// Copyright © 2018-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package sshd is a ssh server daemon. Sessions run goes commands, so a
// remote "ssh MACHINE hget fan.duty" works without a login shell.
package sshd

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"syscall"
	"unsafe"

	"github.com/gliderlabs/ssh"
	"github.com/kr/pty"
	"github.com/platinasystems/log"
	gossh "golang.org/x/crypto/ssh"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/lang"
)

const (
	keyDir          = "/etc/goes/sshd"
	hostKeyFile     = keyDir + "/id_rsa"
	authKeysFile    = keyDir + "/authorized_keys"
	defaultAuthKeys = keyDir + "/authorized_keys.default"
)

type Command struct {
	g    *goes.Goes
	done chan struct{}

	// Addr is the listen address, default ":22".
	Addr string

	// FailSafe permits logins when the authorized keys files can't be
	// read, rather than locking the machine out.
	FailSafe bool
}

func (*Command) String() string { return "sshd" }

func (*Command) Usage() string { return "sshd" }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "ssh server daemon",
	}
}

func (c *Command) Close() error {
	close(c.done)
	return nil
}

func (c *Command) Goes(g *goes.Goes) { c.g = g }

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func setWinsize(f *os.File, w, h int) {
	ws := struct{ h, w, x, y uint16 }{uint16(h), uint16(w), 0, 0}
	syscall.Syscall(syscall.SYS_IOCTL, f.Fd(),
		uintptr(syscall.TIOCSWINSZ), uintptr(unsafe.Pointer(&ws)))
}

func (c *Command) Main(args ...string) error {
	if err := makeId(false); err != nil {
		return err
	}
	c.done = make(chan struct{})

	srv := &ssh.Server{
		Addr: ":22",
	}
	if c.Addr != "" {
		srv.Addr = c.Addr
	}

	srv.Handle(func(s ssh.Session) {
		cmdline := s.Command()
		if len(cmdline) == 0 {
			cmdline = []string{"cli"}
		}
		x := c.g.Fork(cmdline...)
		ptyReq, winCh, isPty := s.Pty()
		if isPty {
			x.Env = append(x.Env, "TERM="+ptyReq.Term)
			f, err := pty.Start(x)
			if err != nil {
				fmt.Fprintln(s.Stderr(), err)
				s.Exit(1)
				return
			}
			go func() {
				for win := range winCh {
					setWinsize(f, win.Width, win.Height)
				}
			}()
			go func() {
				io.Copy(f, s) // stdin
			}()
			io.Copy(s, f) // stdout
		} else {
			x.Stdin = s
			x.Stdout = s
			x.Stderr = s.Stderr()
			if err := x.Run(); err != nil {
				log.Print("daemon", "err", cmdline[0], ": ", err)
				s.Exit(1)
				return
			}
			s.Exit(0)
		}
	})

	err := srv.SetOption(ssh.PublicKeyAuth(
		func(ctx ssh.Context, key ssh.PublicKey) bool {
			return c.authorized(key)
		}))
	if err != nil {
		return err
	}

	if err = srv.SetOption(ssh.HostKeyFile(hostKeyFile)); err != nil {
		return err
	}

	goes.WG.Add(1)
	go func() {
		defer goes.WG.Done()
		srv.ListenAndServe()
	}()

	select {
	case <-c.done:
	case <-goes.Stop:
	}
	return srv.Close()
}

// authorized matches key against authorized_keys, or
// authorized_keys.default when the former doesn't exist.
func (c *Command) authorized(key ssh.PublicKey) bool {
	authKeys, err := ioutil.ReadFile(authKeysFile)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Print("daemon", "err", authKeysFile, ": ", err)
			return c.FailSafe
		}
		authKeys, err = ioutil.ReadFile(defaultAuthKeys)
		if err != nil {
			log.Print("daemon", "err", defaultAuthKeys, ": ", err)
			return c.FailSafe
		}
	}
	for len(authKeys) > 0 {
		authKey, _, _, rest, err := gossh.ParseAuthorizedKey(authKeys)
		if err != nil {
			log.Print("daemon", "err", "authorized_keys: ", err)
			return false
		}
		if ssh.KeysEqual(authKey, key) {
			return true
		}
		authKeys = rest
	}
	return false
}
