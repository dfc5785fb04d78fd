// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package hset

import (
	"fmt"

	"github.com/platinasystems/flags"
	"github.com/platinasystems/redis"

	"github.com/platinasystems/goes-kv260/lang"
)

type Command struct{}

func (Command) String() string { return "hset" }

func (Command) Usage() string { return "hset [-q] [KEY] FIELD VALUE" }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "set the string value of a redis hash field",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Set a redis hash field. Without KEY, use the machine hash, so
	'hset fan.duty 0.8' asks fanctld for 80% fan speed. Fields under a
	daemon assigned prefix are proxied to that daemon; anything else is
	refused.`,
	}
}

func (Command) Complete(args ...string) []string {
	return redis.Complete(args...)
}

func (Command) Main(args ...string) error {
	flag, args := flags.New(args, "-q")
	var key, field, value string
	switch len(args) {
	case 0:
		return fmt.Errorf("FIELD VALUE: missing")
	case 1:
		return fmt.Errorf("VALUE: missing")
	case 2:
		key, field, value = redis.DefaultHash, args[0], args[1]
	case 3:
		key, field, value = args[0], args[1], args[2]
	default:
		return fmt.Errorf("%v: unexpected", args[3:])
	}
	i, err := redis.Hset(key, field, value)
	if err != nil {
		return err
	}
	if !flag.ByName["-q"] {
		fmt.Println(i)
	}
	return nil
}
