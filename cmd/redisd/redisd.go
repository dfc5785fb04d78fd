// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package redisd provides the machine redis server. It runs before all other
// daemons so that they may publish through it, and it proxies hset of
// assigned key prefixes to the owning daemon.
package redisd

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/flags"
	grs "github.com/platinasystems/go-redis-server"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/reg"

	"github.com/platinasystems/goes-kv260/cmd"
	"github.com/platinasystems/goes-kv260/goes"
	"github.com/platinasystems/goes-kv260/internal/cmdline"
	"github.com/platinasystems/goes-kv260/internal/fields"
	"github.com/platinasystems/goes-kv260/lang"
)

type Command struct {
	// Devs restricts listening to these net devices; empty means every
	// device that is up.
	Devs []string

	// Hook, when set, publishes extra "[key: ]field: value" lines after
	// the seed fields and before "redis.ready: true".
	Hook func(*publisher.Publisher)

	// Machine is published as "machine: NAME".
	Machine string

	// Port is the tcp listening port, 6379 when zero.
	Port int

	pubconn *net.UnixConn
	redisd  Redisd
}

func (*Command) String() string { return "redisd" }

func (*Command) Usage() string {
	return "redisd [-port PORT] [-set FIELD=VALUE]... [DEVICE]..."
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "the machine redis server",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	The machine redis server. It answers on the @redisd abstract unix
	socket from boot and on PORT of each listed network device.

	The default hash is seeded with the machine name, the kernel
	command line parameters, and any -set fields, ending with,

		redis.ready: true

	so that dependent daemons may gate on redis.IsReady. A daemon that
	assigns a field prefix, like fanctld's "fan.", serves hset of those
	fields itself.

OPTIONS
	DEVICE...
		listening network devices, default: every up device
	-port PORT
		tcp listening port, default: 6379
	-set FIELD=VALUE
		seed the default hash with the given field values`,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(args ...string) error {
	flag, args := flags.New(args, "-debug")
	parm, args := parms.New(args, "-port", "-set")
	if s := parm.ByName["-port"]; len(s) > 0 {
		if _, err := fmt.Sscan(s, &c.Port); err != nil {
			return fmt.Errorf("%s: invalid port: %v", s, err)
		}
	} else if c.Port == 0 {
		c.Port = 6379
	}
	if len(args) == 0 {
		args = c.Devs
	}
	if flag.ByName["-debug"] {
		grs.Debugf = grs.ActualDebugf
	} else {
		grs.Stderr = os.Stderr
	}

	c.redisd.port = c.Port
	c.redisd.devs = make(map[string][]*netServer)
	c.redisd.sub = make(map[string]*grs.MultiChannelWriter)
	c.redisd.published = grs.HashHash{
		redis.DefaultHash: make(grs.HashValue),
	}

	cfg := grs.DefaultConfig().Proto("unix").Host("@redisd").
		Handler(&c.redisd)
	srv, err := grs.NewServer(cfg)
	if err != nil {
		return err
	}
	c.redisd.devs["@redisd"] = []*netServer{{srv: srv}}

	c.redisd.reg, err = reg.New(c.redisd.assign, c.redisd.unassign)
	if err != nil {
		return err
	}

	c.pubconn, err = atsock.ListenUnixgram("redis.pub")
	if err != nil {
		return err
	}
	goes.WG.Add(1)
	go func() {
		defer goes.WG.Done()
		c.gopub()
	}()

	if err = c.pubinit(fields.New(parm.ByName["-set"])...); err != nil {
		return err
	}

	goes.WG.Add(1)
	go func() {
		defer goes.WG.Done()
		srv.Start()
	}()

	goes.WG.Add(1)
	go func(names ...string) {
		defer goes.WG.Done()
		c.listen(names...)
	}(args...)

	<-goes.Stop

	c.shutdown()
	return nil
}

// listen brings up a redis server on each of the named net devices, or on
// every device when the machine names none.
func (c *Command) listen(names ...string) {
	if len(names) == 0 {
		itfs, err := net.Interfaces()
		if err != nil {
			return
		}
		for _, itf := range itfs {
			names = append(names, itf.Name)
		}
	}
	for _, name := range names {
		select {
		case <-goes.Stop:
			return
		default:
			c.redisd.listenOnInterface(name)
		}
	}
}

func (c *Command) shutdown() {
	if c.redisd.reg != nil {
		c.redisd.reg.Srvr.Close()
	}
	if c.pubconn != nil {
		c.pubconn.Close()
	}
	c.redisd.mutex.Lock()
	defer c.redisd.mutex.Unlock()
	for k, srvs := range c.redisd.devs {
		for i, srv := range srvs {
			srv.srv.Close()
			srvs[i] = nil
		}
		delete(c.redisd.devs, k)
	}
}

// gopub reads "[key: ]field: value" messages from the redis.pub socket into
// the published hashes and forwards them to any subscribers of the key.
func (c *Command) gopub() {
	sep := []byte(": ")
	b := make([]byte, os.Getpagesize())
	for {
		n, err := c.pubconn.Read(b)
		if err != nil {
			break
		}
		key := redis.DefaultHash
		fv := bytes.TrimSpace(b[:n])
		i := bytes.Index(fv, sep)
		if i < 0 {
			continue
		}
		if bytes.Contains(fv[i+len(sep):], sep) {
			key = string(fv[:i])
			fv = fv[i+len(sep):]
			i = bytes.Index(fv, sep)
		}
		field := string(fv[:i])
		value := fv[i+len(sep):]

		c.redisd.mutex.Lock()
		hv, found := c.redisd.published[key]
		if !found {
			hv = make(grs.HashValue)
			c.redisd.published[key] = hv
		}
		if field == "delete" {
			for k := range hv {
				if strings.HasPrefix(k, string(value)) {
					delete(hv, k)
				}
			}
		} else {
			hv[field] = append(hv[field][:0], value...)
			if sub, found := c.redisd.sub[key]; found {
				c.redisd.forward(sub, key, fv)
			}
		}
		c.redisd.flushSubkeyCache(key)
		c.redisd.mutex.Unlock()
	}
}

// pubinit seeds the default hash before accepting connections, ending with
// "redis.ready: true" so that daemons blocked in redis.IsReady proceed.
func (c *Command) pubinit(fieldEqValues ...string) error {
	pub, err := publisher.New()
	if err != nil {
		return err
	}
	defer pub.Close()

	if len(c.Machine) > 0 {
		pub.Print("machine: ", c.Machine)
	}
	if hostname, err := os.Hostname(); err == nil {
		pub.Print("hostname: ", hostname)
	}
	if keys, cl, err := cmdline.New(); err == nil {
		for _, k := range keys {
			pub.Printf("cmdline.%s: %s", k, cl[k])
		}
	}

	if c.Hook != nil {
		c.Hook(pub)
	}

	for _, feqv := range fieldEqValues {
		x := strings.SplitN(feqv, "=", 2)
		if len(x[0]) == 0 {
			continue
		}
		var value string
		if len(x) == 2 {
			value = x[1]
		}
		pub.Print(x[0], ": ", value)
	}

	_, err = pub.Print("redis.ready: true")
	return err
}

type netServer struct {
	addr string
	srv  *grs.Server
}

// Redisd is the grs.Handler of every listener. The mutex covers the maps,
// the assignments, and the key caches; reg is fixed before serving starts.
type Redisd struct {
	mutex sync.Mutex
	devs  map[string][]*netServer
	sub   map[string]*grs.MultiChannelWriter

	reg *reg.Reg

	// assignments maps field prefixes to their owning daemon, longest
	// prefix first.
	assignments Assignments

	published grs.HashHash

	// keys and the subkeys per key are rebuilt on demand after a flush.
	cachedKeys    []string
	cachedSubkeys map[string][]string

	port int
}

func (redisd *Redisd) assign(key string, v interface{}) error {
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	redisd.assignments = redisd.assignments.Insert(key, v)
	redisd.flushKeyCache()
	return nil
}

func (redisd *Redisd) unassign(key string) error {
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	if redisd.assignments.Find(key) == nil {
		return fmt.Errorf("%s: not found", key)
	}
	redisd.assignments = redisd.assignments.Delete(key)
	redisd.flushKeyCache()
	return nil
}

// forward fans a published "field: value" out to the key's subscribers.
// A subscriber with a full channel is culled rather than blocked on.
// Called with the mutex held.
func (redisd *Redisd) forward(sub *grs.MultiChannelWriter, key string,
	fv []byte) {
	mb := make([]byte, len(fv))
	copy(mb, fv)
	msg := []interface{}{"message", key, mb}
	for i := 0; i < len(sub.Chans); {
		select {
		case sub.Chans[i].Channel <- msg:
			i++
		default:
			close(sub.Chans[i].Channel)
			n := len(sub.Chans) - 1
			if i != n {
				copy(sub.Chans[i:], sub.Chans[i+1:])
			}
			sub.Chans[n] = nil
			sub.Chans = sub.Chans[:n]
		}
	}
}

// listenOnInterface starts a redis server on each address of the named net
// device. A skipped device only logs; "daemon restart" of redisd retries.
func (redisd *Redisd) listenOnInterface(name string) {
	dev, err := net.InterfaceByName(name)
	if err != nil {
		fmt.Fprintln(os.Stderr, name+": ", err)
		return
	}
	if dev.Flags&net.FlagUp != net.FlagUp {
		fmt.Fprintln(os.Stderr, name+": down")
		return
	}
	addrs, err := dev.Addrs()
	if err == nil && len(addrs) == 0 {
		err = fmt.Errorf("no address")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, name+": ", err)
		return
	}

	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()

	for _, addr := range addrs {
		ip, _, err := net.ParseCIDR(addr.String())
		if err != nil {
			fmt.Fprintln(os.Stderr, addr, ": CIDR: ", err)
			continue
		}
		if ip.IsMulticast() || redisd.listening(name, addr.String()) {
			continue
		}
		redisd.serve(name, addr.String(), ip)
	}
}

// listening reports whether a server is already bound to the device address.
// Called with the mutex held.
func (redisd *Redisd) listening(name, addr string) bool {
	for _, srv := range redisd.devs[name] {
		if srv.addr == addr {
			return true
		}
	}
	return false
}

// serve starts a redis server bound to ip on the named device. Link local
// IPv6 addresses need the device as their zone. Called with the mutex held.
func (redisd *Redisd) serve(name, addr string, ip net.IP) {
	id := fmt.Sprint("[", ip, "%", name, "]:", redisd.port)
	cfg := grs.DefaultConfig().Handler(redisd).Port(redisd.port)
	if ip.To4() == nil {
		cfg = cfg.Proto("tcp6")
		cfg = cfg.Host(fmt.Sprint("[", ip, "%", name, "]"))
	} else {
		cfg = cfg.Host(ip.String())
	}
	srv, err := grs.NewServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, id+": ", err)
		return
	}
	redisd.devs[name] = append(redisd.devs[name],
		&netServer{addr: addr, srv: srv})
	goes.WG.Add(1)
	go func() {
		defer goes.WG.Done()
		srv.Start()
	}()
	fmt.Println("listen:", id)
}

func (redisd *Redisd) flushKeyCache() {
	redisd.cachedKeys = redisd.cachedKeys[:0]
}

func (redisd *Redisd) flushSubkeyCache(key string) {
	if redisd.cachedSubkeys == nil {
		return
	}
	if a, found := redisd.cachedSubkeys[key]; found {
		redisd.cachedSubkeys[key] = a[:0]
	}
}

// hash returns the published hash of key. Called with the mutex held.
func (redisd *Redisd) hash(key string) (grs.HashValue, error) {
	hv, found := redisd.published[key]
	if !found {
		return nil, fmt.Errorf("%s: not found", key)
	}
	return hv, nil
}

func (redisd *Redisd) Hexists(key, field string) (int, error) {
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	hv, err := redisd.hash(key)
	if err != nil {
		return 0, err
	}
	if _, found := hv[field]; !found {
		return 0, fmt.Errorf("%s: not found in %s", field, key)
	}
	return 1, nil
}

// Hget returns the value of the field within the key's hash. A field that
// names no published value is retried as a regular expression; the matched
// subset is returned as sorted "field: value" lines, as is the entire hash
// for an empty field.
func (redisd *Redisd) Hget(key, field string) ([]byte, error) {
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	hv, err := redisd.hash(key)
	if err != nil {
		return nil, err
	}
	if len(field) > 0 {
		if b, found := hv[field]; found {
			return b, nil
		}
	}
	fields := make([]string, 0, len(hv))
	if len(field) == 0 {
		for k := range hv {
			fields = append(fields, k)
		}
	}
	if len(fields) == 0 {
		re, err := regexp.Compile(field)
		if err != nil {
			return nil, err
		}
		for k := range hv {
			if re.MatchString(k) {
				fields = append(fields, k)
			}
		}
		if len(fields) == 0 {
			return nil, fmt.Errorf("%s: not found in %s",
				field, key)
		}
	}
	sort.Strings(fields)
	lines := make([]string, len(fields))
	for i, k := range fields {
		lines[i] = k + ": " + string(hv[k])
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func (redisd *Redisd) Hgetall(key string) ([][]byte, error) {
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	hv, err := redisd.hash(key)
	if err != nil {
		return nil, err
	}
	bs := make([][]byte, 0, 2*len(hv))
	for _, k := range redisd.subkeys(key, hv) {
		bs = append(bs, []byte(k), hv[k])
	}
	return bs, nil
}

func (redisd *Redisd) Hkeys(key string) ([][]byte, error) {
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	hv, err := redisd.hash(key)
	if err != nil {
		return nil, err
	}
	subkeys := redisd.subkeys(key, hv)
	bs := make([][]byte, len(subkeys))
	for i, k := range subkeys {
		bs[i] = []byte(k)
	}
	return bs, nil
}

// Hset is proxied to the daemon assigned the longest matching prefix of
// "KEY:FIELD", so "hset kv260 fan.duty 0.8" becomes an rpc to fanctld.
func (redisd *Redisd) Hset(key, field string, value []byte) (int, error) {
	type hsetter interface {
		Hset(string, string, []byte) (int, error)
	}
	hashkey := fmt.Sprint(key, ":", field)
	redisd.mutex.Lock()
	v := redisd.assignments.Find(hashkey)
	if v == nil {
		v = redisd.assignments.Find(key)
	}
	redisd.mutex.Unlock()
	if method, found := v.(hsetter); found {
		return method.Hset(key, field, value)
	}
	return 0, fmt.Errorf("can't hset %s %s", key, field)
}

func (redisd *Redisd) Keys(pattern string) ([][]byte, error) {
	match := func(k string) bool { return true }
	if len(pattern) > 0 && pattern != "*" {
		if strings.ContainsAny(pattern, "?*\\") {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, err
			}
			match = re.MatchString
		} else {
			match = func(k string) bool { return k == pattern }
		}
	}
	var reply [][]byte
	seen := make(map[string]struct{})
	for _, k := range redisd.keys() {
		if _, dup := seen[k]; dup || !match(k) {
			continue
		}
		seen[k] = struct{}{}
		reply = append(reply, []byte(k))
	}
	return reply, nil
}

// keys returns the sorted assignment prefix and published hash keys, cached
// until the next assign or unassign.
func (redisd *Redisd) keys() []string {
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	if len(redisd.cachedKeys) == 0 {
		keys := make([]string, 0,
			len(redisd.assignments)+len(redisd.published))
		for _, a := range redisd.assignments {
			k := a.prefix
			if i := strings.Index(k, ":"); i > 0 {
				k = k[:i]
			}
			keys = append(keys, k)
		}
		for k := range redisd.published {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		redisd.cachedKeys = keys
	}
	return redisd.cachedKeys
}

// Monitor accepts the MONITOR command but feeds the connection nothing.
func (redisd *Redisd) Monitor() (*grs.MonitorReply, error) {
	return &grs.MonitorReply{}, nil
}

func (redisd *Redisd) Ping() (*grs.StatusReply, error) {
	return grs.NewStatusReply("PONG"), nil
}

func (redisd *Redisd) Subscribe(channels ...[]byte) (*grs.MultiChannelWriter,
	error) {
	mcw := &grs.MultiChannelWriter{
		Chans: make([]*grs.ChannelWriter, len(channels)),
	}
	redisd.mutex.Lock()
	defer redisd.mutex.Unlock()
	for i, key := range channels {
		cw := &grs.ChannelWriter{
			FirstReply: []interface{}{"subscribe", key, 1},
			Channel:    make(chan []interface{}, 1024),
		}
		mcw.Chans[i] = cw
		if sub, found := redisd.sub[string(key)]; found {
			sub.Chans = append(sub.Chans, cw)
		} else {
			redisd.sub[string(key)] = &grs.MultiChannelWriter{
				Chans: []*grs.ChannelWriter{cw},
			}
		}
	}
	return mcw, nil
}

// subkeys returns the sorted fields of the hash, cached until the next
// publish to key.
func (redisd *Redisd) subkeys(key string, hv grs.HashValue) []string {
	if redisd.cachedSubkeys == nil {
		redisd.cachedSubkeys = make(map[string][]string)
	}
	subkeys := redisd.cachedSubkeys[key]
	if len(subkeys) != len(hv) {
		subkeys = subkeys[:0]
		for k := range hv {
			subkeys = append(subkeys, k)
		}
		sort.Strings(subkeys)
		redisd.cachedSubkeys[key] = subkeys
	}
	return subkeys
}

// Assignments are kept sorted longest prefix first so that Find returns the
// most specific assignment of a key.
type Assignments []*assignment

type assignment struct {
	prefix string
	v      interface{}
}

func (as Assignments) Delete(key string) Assignments {
	for i := range as {
		if strings.HasPrefix(key, as[i].prefix) {
			return append(as[:i], as[i+1:]...)
		}
	}
	return as
}

func (as Assignments) Find(key string) interface{} {
	for i := range as {
		if strings.HasPrefix(key, as[i].prefix) {
			return as[i].v
		}
	}
	return nil
}

func (as Assignments) Insert(prefix string, v interface{}) Assignments {
	i := sort.Search(len(as), func(i int) bool {
		if len(as[i].prefix) != len(prefix) {
			return len(as[i].prefix) < len(prefix)
		}
		return as[i].prefix > prefix
	})
	as = append(as, nil)
	copy(as[i+1:], as[i:])
	as[i] = &assignment{prefix, v}
	return as
}
