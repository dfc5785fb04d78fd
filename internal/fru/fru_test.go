// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fru

import (
	"testing"
	"time"

	"github.com/platinasystems/goes-kv260/internal/test"
)

// somImage builds a FRU image with a common header at 0 and a board info
// area at 8, the KV260 SOM layout.
func somImage(date time.Time, ascii []string, custom [][]byte) []byte {
	area := []byte{1, 0, 0, 0, 0, 0}
	min := uint(date.Sub(mfgEpoch) / time.Minute)
	area[3] = byte(min)
	area[4] = byte(min >> 8)
	area[5] = byte(min >> 16)
	for _, s := range ascii {
		area = append(area, 0xc0|byte(len(s)))
		area = append(area, s...)
	}
	for _, b := range custom {
		area = append(area, byte(len(b)))
		area = append(area, b...)
	}
	area = append(area, 0xc1)
	for len(area)%8 != 7 {
		area = append(area, 0)
	}
	area[1] = byte((len(area) + 1) / 8)
	area = append(area, -sum(area))

	header := []byte{1, 0, 0, 1, 0, 0, 0}
	header = append(header, -sum(header))
	return append(header, area...)
}

var somDate = time.Date(2021, time.March, 1, 12, 30, 0, 0, time.UTC)

func somFields() []string {
	return []string{"XILINX", "SM-K26-XCL2GC", "XFL1BOARD0042", "5057-04",
		""}
}

func TestParseBoard(t *testing.T) {
	assert := test.Assert{t}
	img := somImage(somDate, somFields(), [][]byte{{0xab, 0xcd}})

	off, err := BoardOffset(img)
	assert.Nil(err)
	if off != 8 {
		t.Fatalf("board area at %d", off)
	}
	b, err := ParseBoard(img[off:])
	assert.Nil(err)
	assert.Equal(b.Mfg, "XILINX")
	assert.Equal(b.Product, "SM-K26-XCL2GC")
	assert.Equal(b.Serial, "XFL1BOARD0042")
	assert.Equal(b.Part, "5057-04")
	assert.Equal(b.FileID, "")
	if len(b.Custom) != 1 || b.Custom[0] != "abcd" {
		t.Fatalf("custom %q", b.Custom)
	}
	if !b.MfgDate.Equal(somDate) {
		t.Fatalf("date %v, want %v", b.MfgDate, somDate)
	}
}

func TestBoardString(t *testing.T) {
	assert := test.Assert{t}
	img := somImage(somDate, somFields(), nil)
	b, err := ParseBoard(img[8:])
	assert.Nil(err)
	assert.Match(b.String(), "product: SM-K26-XCL2GC\n")
	assert.Match(b.String(), "mfg.date: 2021-03-01 12:30")
}

func TestBadChecksums(t *testing.T) {
	assert := test.Assert{t}
	img := somImage(somDate, somFields(), nil)

	img[7] ^= 0xff
	_, err := BoardOffset(img)
	assert.Error(err, "fru: header checksum")
	img[7] ^= 0xff

	img[12]++
	_, err = ParseBoard(img[8:])
	assert.Error(err, "fru: board area checksum")
}

func TestShortImage(t *testing.T) {
	assert := test.Assert{t}
	_, err := BoardOffset([]byte{1, 0, 0})
	assert.Error(err, "fru: 3 byte header")
	_, err = ParseBoard([]byte{1})
	assert.Error(err, "fru: 1 byte board area")
}

func TestNoBoardArea(t *testing.T) {
	assert := test.Assert{t}
	header := []byte{1, 0, 0, 0, 0, 0, 0}
	header = append(header, -sum(header))
	_, err := BoardOffset(header)
	assert.Error(err, "fru: no board info area")
}
