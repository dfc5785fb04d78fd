// Copyright 2016-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package daemons spawns and supervises the machine daemons. Each runs as a
// child of the goes-daemons server with its output teed to the daemon log
// ring, and is restarted on unrequested exit.
package daemons

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/log"

	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/internal/prog"
)

// RestartLimit is the number of times a daemon is restarted after
// unrequested exits before being dropped.
const RestartLimit = 3

// killPatience is how long a stopped daemon may linger after SIGTERM before
// escalation to SIGKILL.
const killPatience = 3 * time.Second

// Daemons tracks the children of the goes-daemons server and serves the
// rpc of the daemon admin verbs.
type Daemons struct {
	mutex sync.Mutex
	goes  *goes.Goes
	rpc   *atsock.RpcServer
	done  chan struct{}
	pids  []int
	log   daemonLog

	cmdsByPid map[int]*exec.Cmd

	// stopping latches when a full Stop begins; a racing Stop gets
	// EBUSY instead of a second round of signals.
	stopping bool
}

func sockname() string {
	return prog.Base() + "-daemons"
}

// init readies the pid table and hooks the ring into the package log so
// that server messages land beside the daemon output.
func (d *Daemons) init() {
	d.done = make(chan struct{})
	d.cmdsByPid = make(map[int]*exec.Cmd)
	d.log.init()
	log.Tee(&d.log)
}

func (d *Daemons) start(restarts int, args ...string) {
	if len(args) < 1 {
		return
	}
	rout, wout, err := os.Pipe()
	if err != nil {
		log.Print("daemon", "err", strings.Join(args, " "), ": ", err)
		return
	}
	rerr, werr, err := os.Pipe()
	if err != nil {
		log.Print("daemon", "err", strings.Join(args, " "), ": ", err)
		rout.Close()
		wout.Close()
		return
	}
	p := d.goes.Fork(args...)
	p.Stdin = nil
	p.Stdout = wout
	p.Stderr = werr
	p.Dir = "/"
	p.Env = []string{
		"PATH=" + prog.Path(),
		"TERM=linux",
	}
	if err = p.Start(); err != nil {
		log.Print("daemon", "err", strings.Join(args, " "), ": ", err)
		for _, f := range []*os.File{rout, wout, rerr, werr} {
			f.Close()
		}
		return
	}
	pid := p.Process.Pid
	log.Print("daemon", "info", "running ", pid, " ", args)
	d.add(pid, p)
	id := fmt.Sprintf("%s.%s[%d]", prog.Base(), args[0], pid)
	go log.LinesFrom(rout, id, "info")
	go log.LinesFrom(rerr, id, "err")
	go d.reap(p, wout, werr, restarts, args)
}

// reap waits for the daemon to exit, then respins it unless it was stopped
// through the rpc, which removes the pid from the table beforehand.
func (d *Daemons) reap(p *exec.Cmd, wout, werr *os.File, restarts int,
	args []string) {
	if err := p.Wait(); err != nil {
		fmt.Fprintln(werr, err)
	} else {
		fmt.Fprintln(wout, "done")
	}
	if d.cmd(p.Process.Pid) != nil {
		d.del(p.Process.Pid)
		if restarts == RestartLimit {
			fmt.Fprintln(werr, "too many restarts")
		} else {
			fmt.Fprintln(werr, "restart")
			defer d.start(restarts+1, args...)
		}
	}
	wout.Sync()
	werr.Sync()
	wout.Close()
	werr.Close()
}

// List replies with a line per daemon, pid then argv.
func (d *Daemons) List(args struct{}, reply *string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	sb := new(strings.Builder)
	for _, pid := range d.pids {
		fmt.Fprintf(sb, "%d: %v\n", pid, d.cmdsByPid[pid].Args)
	}
	*reply = sb.String()
	return nil
}

// Log appends any given words to the ring, then replies with its contents.
func (d *Daemons) Log(args []string, reply *string) error {
	if len(args) > 0 {
		vargs := make([]interface{}, len(args))
		for i, arg := range args {
			vargs[i] = arg
		}
		log.Print(vargs...)
	}
	*reply = d.log.String()
	return nil
}

// Start spawns the given goes command as a new daemon.
func (d *Daemons) Start(args []string, reply *struct{}) error {
	d.start(0, args...)
	return nil
}

// Stop terminates the given pids; given none, it stops every daemon and
// then the server itself.
func (d *Daemons) Stop(pids []int, reply *struct{}) error {
	if len(pids) == 0 {
		d.mutex.Lock()
		if d.stopping {
			d.mutex.Unlock()
			return syscall.EBUSY
		}
		d.stopping = true
		pids = d.reversed()
		d.mutex.Unlock()
		log.Print("daemon", "info", "stopping")
		defer close(d.done)
	}
	return d.stop(pids)
}

// Restart stops then respawns the given pids, or every daemon when given
// none.
func (d *Daemons) Restart(pids []int, reply *struct{}) error {
	var pargs [][]string
	var err error
	d.mutex.Lock()
	if len(pids) == 0 {
		// stop in reverse order but restart in start order
		pargs, err = d.argsOf(d.pids)
		pids = d.reversed()
	} else {
		pargs, err = d.argsOf(pids)
	}
	d.mutex.Unlock()
	if err != nil {
		return err
	}
	if err = d.stop(pids); err != nil {
		return err
	}
	for _, args := range pargs {
		log.Print("daemon", "info", "restarting: ", args)
		d.start(0, args...)
	}
	return nil
}

func (d *Daemons) add(pid int, p *exec.Cmd) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.pids = append(d.pids, pid)
	d.cmdsByPid[pid] = p
}

func (d *Daemons) cmd(pid int) *exec.Cmd {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.cmdsByPid[pid]
}

func (d *Daemons) del(pid int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.cmdsByPid, pid)
	for i, entry := range d.pids {
		if pid == entry {
			d.pids = append(d.pids[:i], d.pids[i+1:]...)
			break
		}
	}
}

// reversed returns the supervised pids, last started first. Daemons stop in
// the reverse of their start order so that redisd outlives its dependents.
// Called with the mutex held.
func (d *Daemons) reversed() []int {
	pids := make([]int, len(d.pids))
	for i, pid := range d.pids {
		pids[len(pids)-i-1] = pid
	}
	return pids
}

// argsOf snapshots the start arguments of each pid. Called with the mutex
// held.
func (d *Daemons) argsOf(pids []int) ([][]string, error) {
	pargs := make([][]string, len(pids))
	for i, pid := range pids {
		p := d.cmdsByPid[pid]
		if p == nil {
			return nil, fmt.Errorf("%d: not found", pid)
		}
		pargs[i] = append([]string{}, p.Args...)
	}
	return pargs, nil
}

// stop signals each pid with SIGTERM, then SIGKILL if it lingers past
// killPatience.
func (d *Daemons) stop(pids []int) error {
	for _, pid := range pids {
		p := d.cmd(pid)
		if p == nil {
			return fmt.Errorf("%d: not found", pid)
		}
		log.Print("daemon", "info", "stopping: ", p.Args)
		d.del(pid)
		p.Process.Signal(syscall.SIGTERM)
	}
	for _, pid := range pids {
		procdn := fmt.Sprint("/proc/", pid)
		for t := 100 * time.Millisecond; ; t *= 2 {
			if _, err := os.Stat(procdn); err != nil {
				break
			}
			if t > killPatience {
				log.Print("daemon", "info", "killing: ", pid)
				syscall.Kill(pid, syscall.SIGKILL)
				time.Sleep(100 * time.Millisecond)
			} else {
				time.Sleep(t)
			}
		}
	}
	return nil
}
