// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// DefaultBus is the I²C bus used when none is configured (/dev/i2c-1).
const DefaultBus = "1"

// Transport is the register-level access the sampler needs from the bus.
type Transport interface {
	WriteRegister(addr uint16, reg, value byte) error
	ReadBurst(addr uint16, start byte, count int) ([]byte, error)
}

// RegisterBus implements Transport on top of a periph I²C bus.
type RegisterBus struct {
	bus i2c.Bus
}

// NewRegisterBus wraps b.
func NewRegisterBus(b i2c.Bus) *RegisterBus {
	return &RegisterBus{bus: b}
}

// WriteRegister sends one two-byte write: register address then value.
func (b *RegisterBus) WriteRegister(addr uint16, reg, value byte) error {
	d := i2c.Dev{Bus: b.bus, Addr: addr}
	if err := d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("write %s at 0x%02X: %w", RegisterName(reg), addr, err)
	}
	return nil
}

// ReadBurst writes the start register address and reads count bytes back
// in the same transaction.
func (b *RegisterBus) ReadBurst(addr uint16, start byte, count int) ([]byte, error) {
	d := i2c.Dev{Bus: b.bus, Addr: addr}
	r := make([]byte, count)
	if err := d.Tx([]byte{start}, r); err != nil {
		return nil, fmt.Errorf("read %d bytes from %s at 0x%02X: %w", count, RegisterName(start), addr, err)
	}
	return r, nil
}

// OpenBus initializes the periph host drivers and opens the named I²C bus.
// An empty name opens DefaultBus.
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	if name == "" {
		name = DefaultBus
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open failed on bus %s: %w", name, err)
	}
	return bus, nil
}
