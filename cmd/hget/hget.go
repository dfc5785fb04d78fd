// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package hget

import (
	"fmt"
	"os"

	"github.com/platinasystems/redis"

	"github.com/platinasystems/goes-kv260/lang"
)

type Command struct{}

func (Command) String() string { return "hget" }

func (Command) Usage() string { return "hget [KEY] FIELD" }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "get the value of a redis hash field",
	}
}

func (Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Get the value of a redis hash field. Without KEY, use the machine
	hash, so 'hget fan.duty' prints the published duty. FIELD may be a
	regular expression matching several fields, e.g. 'hget fan'.`,
	}
}

func (Command) Complete(args ...string) []string {
	return redis.Complete(args...)
}

func (Command) Main(args ...string) error {
	var key, field string
	switch len(args) {
	case 0:
		return fmt.Errorf("FIELD: missing")
	case 1:
		key, field = redis.DefaultHash, args[0]
	case 2:
		key, field = args[0], args[1]
	default:
		return fmt.Errorf("%v: unexpected", args[2:])
	}
	s, err := redis.Hget(key, field)
	if err != nil {
		return err
	}
	redis.Fprintln(os.Stdout, s)
	return nil
}
