// Copyright © 2021 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fru

import (
	"time"

	"github.com/platinasystems/i2c"
)

// Device reads a FRU EEPROM with two byte addressing from an i2c bus.
type Device struct {
	BusIndex   int
	BusAddress int
	Board      Board
}

func (d *Device) i2cDo(rw i2c.RW, regOffset uint8, size i2c.SMBusSize,
	data *i2c.SMBusData) (err error) {
	var bus i2c.Bus

	err = bus.Open(d.BusIndex)
	if err != nil {
		return
	}
	defer bus.Close()

	err = bus.ForceSlaveAddress(d.BusAddress)
	if err != nil {
		return
	}

	err = bus.Do(rw, regOffset, size, data)
	return
}

func (d *Device) getByte(i uint) byte {
	var data i2c.SMBusData
	data[0] = uint8(i & 0x00ff)

	// write two byte address
	if err := d.i2cDo(i2c.Write, uint8(i>>8), i2c.ByteData, &data); err != nil {
		panic(err)
	}
	// EEPROM has a 5ms minimum write delay, wait 10ms
	time.Sleep(10 * time.Millisecond)

	// read byte
	if err := d.i2cDo(i2c.Read, uint8(0), i2c.Byte, &data); err != nil {
		panic(err)
	}
	return byte(data[0])
}

func (d *Device) read(off, n uint) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = d.getByte(off + uint(i))
	}
	return b
}

// GetInfo reads the common header and board info area into d.Board.
func (d *Device) GetInfo() (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = e.(error)
		}
	}()
	header := d.read(0, headerSize)
	off, err := BoardOffset(header)
	if err != nil {
		return
	}
	// area length is in the second byte
	n := uint(d.getByte(off+1)) * 8
	b, err := ParseBoard(d.read(off, n))
	if err != nil {
		return
	}
	d.Board = *b
	return
}
