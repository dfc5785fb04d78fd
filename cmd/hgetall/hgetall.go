// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package hgetall

import (
	"fmt"

	"github.com/platinasystems/redis"

	"github.com/platinasystems/goes-kv260/lang"
)

type Command struct{}

func (Command) String() string { return "hgetall" }

func (Command) Usage() string { return "hgetall [KEY]" }

func (Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "get all the field values in a redis hash",
	}
}

func (Command) Complete(args ...string) []string {
	return redis.Complete(args...)
}

func (Command) Main(args ...string) error {
	key := redis.DefaultHash
	switch len(args) {
	case 0:
	case 1:
		key = args[0]
	default:
		return fmt.Errorf("%v: unexpected; use: `hget %s '%s'`",
			args[1:], args[0], args[1])
	}
	r, err := redis.Connect()
	if err != nil {
		return err
	}
	defer r.Close()
	ret, err := r.Do("HGETALL", key)
	if err != nil {
		return err
	}
	list, ok := ret.([]interface{})
	if !ok {
		return fmt.Errorf("%s: unexpected reply %T", key, ret)
	}
	for i := 0; i+1 < len(list); i += 2 {
		field, _ := list[i].([]byte)
		value, haveValue := list[i+1].([]byte)
		if haveValue {
			fmt.Println(redis.Quotes(string(field)) + ": " +
				redis.Quotes(string(value)))
		} else {
			fmt.Println(redis.Quotes(string(field)))
		}
	}
	return nil
}
