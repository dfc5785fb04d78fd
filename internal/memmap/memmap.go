// Copyright 2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package memmap parses /proc/iomem, /proc/ioports, and anything else of
// similar structure.
package memmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

type Range struct {
	Start uintptr
	End   uintptr
}

type Region struct {
	What   string
	Ranges []*Range
}

type RegionMap map[string]Region

func (r Range) String() string {
	return fmt.Sprintf("%x-%x", r.Start, r.End)
}

func (r Region) String() string {
	return fmt.Sprintf("%s: %v", r.What, r.Ranges)
}

func ReaderToMap(r io.Reader) (RegionMap, error) {
	regionMap := make(RegionMap)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.SplitAfterN(scanner.Text(), ":", 2)
		if len(fields) != 2 {
			continue
		}
		var start, end uintptr
		n, err := fmt.Sscanf(fields[0], "%x-%x", &start, &end)
		if n != 2 || err != nil {
			continue
		}
		key := strings.TrimSpace(fields[1])
		reg := regionMap[key]
		reg.What = key
		reg.Ranges = append(reg.Ranges, &Range{Start: start, End: end})
		regionMap[key] = reg
	}
	return regionMap, scanner.Err()
}

func FileToMap(s string) (RegionMap, error) {
	f, err := os.OpenFile(s, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReaderToMap(f)
}

// Find returns the first region whose name contains what, in unspecified
// order when several match.
func (m RegionMap) Find(what string) (Region, bool) {
	for key, reg := range m {
		if strings.Contains(key, what) {
			return reg, true
		}
	}
	return Region{}, false
}
