// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// SimBus is an in-memory I²C bus with a single simulated magnetometer
// on it. Register writes are stored; burst reads of the output registers
// return a fixed field plus uniform noise. Other registers read back
// what was written, and the identification registers hold "H43".
type SimBus struct {
	mu sync.Mutex

	addr   uint16
	regs   [16]byte
	field  [3]int16 // counts
	noise  int16    // max deviation in counts
	rnd    *rand.Rand
	closed bool
}

var _ i2c.BusCloser = (*SimBus)(nil)

// NewSimBus returns a bus with a device at addr reporting roughly the
// given field (X, Y, Z raw counts).
func NewSimBus(addr uint16, field [3]int16, noise int16, seed uint64) *SimBus {
	b := &SimBus{
		addr:  addr,
		field: field,
		noise: noise,
		rnd:   rand.New(rand.NewPCG(seed, seed^0x5eed)),
	}
	copy(b.regs[RegIRA:], "H43")
	return b
}

func (b *SimBus) String() string {
	return fmt.Sprintf("simbus(0x%02X)", b.addr)
}

// SetSpeed is accepted and ignored.
func (b *SimBus) SetSpeed(f physic.Frequency) error {
	return nil
}

// Close marks the bus closed; later transactions fail.
func (b *SimBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Register returns the last value written to reg.
func (b *SimBus) Register(reg byte) byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs[reg&0x0F]
}

// Tx implements i2c.Bus.
func (b *SimBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.New("simbus: closed")
	}
	if addr != b.addr {
		return fmt.Errorf("simbus: no device at 0x%02X", addr)
	}
	if len(w) == 0 {
		return errors.New("simbus: empty write")
	}
	reg := w[0] & 0x0F
	if len(r) == 0 {
		// Register write.
		for i, v := range w[1:] {
			b.regs[(int(reg)+i)&0x0F] = v
		}
		return nil
	}
	if reg != RegDataOut || len(r) != burstSize {
		if int(reg)+len(r) > int(RegIRC)+1 {
			return fmt.Errorf("simbus: read of %d bytes from %s past the last register", len(r), RegisterName(reg))
		}
		copy(r, b.regs[reg:])
		return nil
	}
	for i := 0; i < 3; i++ {
		v := b.field[i]
		if b.noise > 0 {
			v += int16(b.rnd.IntN(2*int(b.noise)+1)) - b.noise
		}
		binary.BigEndian.PutUint16(r[2*i:], uint16(v))
	}
	return nil
}
