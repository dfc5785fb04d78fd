// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fru parses IPMI FRU identity EEPROMs like the one on the KV260
// system on module.
package fru

import (
	"encoding/hex"
	"fmt"
	"time"
)

// Common header offsets, all in 8 byte units.
const (
	version = iota
	internalArea
	chassisArea
	boardArea
	productArea
	multirecordArea
	_
	headerChecksum
	headerSize
)

// mfgEpoch starts the 3 byte minute counter in board info areas.
var mfgEpoch = time.Date(1996, time.January, 1, 0, 0, 0, 0, time.UTC)

type Board struct {
	MfgDate time.Time
	Mfg     string
	Product string
	Serial  string
	Part    string
	FileID  string
	Custom  []string
}

func (b *Board) String() string {
	s := fmt.Sprint("mfg: ", b.Mfg,
		"\nproduct: ", b.Product,
		"\nserial: ", b.Serial,
		"\npart: ", b.Part,
		"\nmfg.date: ", b.MfgDate.Format("2006-01-02 15:04"))
	for i, c := range b.Custom {
		s += fmt.Sprint("\ncustom.", i, ": ", c)
	}
	return s
}

// BoardOffset returns the byte offset and least usable length of the board
// info area described by a common header.
func BoardOffset(header []byte) (uint, error) {
	if len(header) < headerSize {
		return 0, fmt.Errorf("fru: %d byte header", len(header))
	}
	if v := header[version] & 0xf; v != 1 {
		return 0, fmt.Errorf("fru: format version %d", v)
	}
	if sum(header[:headerSize]) != 0 {
		return 0, fmt.Errorf("fru: header checksum")
	}
	off := uint(header[boardArea]) * 8
	if off == 0 {
		return 0, fmt.Errorf("fru: no board info area")
	}
	return off, nil
}

// ParseBoard decodes a board info area. The slice starts at the area and
// must cover its declared length.
func ParseBoard(area []byte) (*Board, error) {
	if len(area) < 2 {
		return nil, fmt.Errorf("fru: %d byte board area", len(area))
	}
	if v := area[0] & 0xf; v != 1 {
		return nil, fmt.Errorf("fru: board area version %d", v)
	}
	n := uint(area[1]) * 8
	if uint(len(area)) < n {
		return nil, fmt.Errorf("fru: board area %d of %d bytes",
			len(area), n)
	}
	if sum(area[:n]) != 0 {
		return nil, fmt.Errorf("fru: board area checksum")
	}
	min := uint(area[3]) | uint(area[4])<<8 | uint(area[5])<<16
	b := &Board{MfgDate: mfgEpoch.Add(time.Duration(min) * time.Minute)}
	fields := []*string{&b.Mfg, &b.Product, &b.Serial, &b.Part, &b.FileID}
	i := uint(6)
	for i < n {
		tl := area[i]
		if tl == 0xc1 {
			break
		}
		flen := uint(tl & 0x3f)
		i++
		if i+flen > n {
			return nil, fmt.Errorf("fru: field beyond board area")
		}
		v := field(tl>>6, area[i:i+flen])
		i += flen
		if len(fields) > 0 {
			*fields[0] = v
			fields = fields[1:]
		} else {
			b.Custom = append(b.Custom, v)
		}
	}
	return b, nil
}

// field decodes one type/length value. Languages other than 8 bit ASCII
// aren't written by any FRU we carry, so binary and packed types just hex
// dump.
func field(typ byte, v []byte) string {
	if typ == 3 {
		return string(v)
	}
	return hex.EncodeToString(v)
}

// sum is the IPMI zero checksum; a whole area sums to zero.
func sum(b []byte) (s byte) {
	for _, x := range b {
		s += x
	}
	return
}
