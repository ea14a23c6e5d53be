// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"strings"
)

// DefaultAddr is the 7-bit I²C address shared by the LSM303DLHC
// magnetometer and the HMC5883L.
const DefaultAddr uint16 = 0x3C >> 1

// Register addresses common to both supported devices.
const (
	RegCRA     byte = 0x00 // output data rate
	RegCRB     byte = 0x01 // gain
	RegMR      byte = 0x02 // operating mode
	RegDataOut byte = 0x03 // OUT_X_H, first of six data registers
	RegStatus  byte = 0x09
	RegIRA     byte = 0x0A // identification, reads 'H'
	RegIRC     byte = 0x0C // last register

	ModeContinuous byte = 0x00

	rateShift = 2 // DO bits 4..2 of CRA
	gainShift = 5 // GN bits 7..5 of CRB
)

// ODRates holds the output data rates in Hz, indexed by the DO bits.
var ODRates = [8]float64{0.75, 1.5, 3.0, 7.5, 15.0, 30.0, 75.0, 220.0}

// DefaultRate is the ODRates index used unless configured: 1.5Hz.
const DefaultRate = 1

// Fullscale is one gain setting of a device.
type Fullscale struct {
	Name  string  // as written in the config file, e.g. "1.3G"
	Gauss float64 // measurement range in Gauss
	Code  byte    // GN bits
}

// Variant describes a supported magnetometer.
type Variant struct {
	Name             string
	Addr             uint16
	MaxRate          int // highest valid ODRates index
	Fullscales       []Fullscale
	DefaultFullscale string
}

var (
	// LSM303 is the ST LSM303DLHC magnetometer.
	LSM303 = Variant{
		Name:    "LSM303",
		Addr:    DefaultAddr,
		MaxRate: 7,
		Fullscales: []Fullscale{
			{"1.3G", 1.3, 0x01},
			{"1.9G", 1.9, 0x02},
			{"2.5G", 2.5, 0x03},
			{"4.0G", 4.0, 0x04},
			{"4.7G", 4.7, 0x05},
			{"5.6G", 5.6, 0x06},
			{"8.1G", 8.1, 0x07},
		},
		DefaultFullscale: "1.3G",
	}

	// HMC5883 is the Honeywell HMC5883L. It tops out at 75Hz.
	HMC5883 = Variant{
		Name:    "HMC5883",
		Addr:    DefaultAddr,
		MaxRate: 6,
		Fullscales: []Fullscale{
			{"0.88G", 0.88, 0x00},
			{"1.3G", 1.3, 0x01},
			{"1.9G", 1.9, 0x02},
			{"2.5G", 2.5, 0x03},
			{"4.0G", 4.0, 0x04},
			{"4.7G", 4.7, 0x05},
			{"5.6G", 5.6, 0x06},
			{"8.1G", 8.1, 0x07},
		},
		DefaultFullscale: "0.88G",
	}
)

// LookupVariant finds a device by name. The match is case-insensitive and
// accepts full part numbers such as "LSM303DLHC" or "HMC5883L".
func LookupVariant(name string) (Variant, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, v := range []Variant{LSM303, HMC5883} {
		if strings.Contains(name, v.Name) {
			return v, true
		}
	}
	return Variant{}, false
}

// Fullscale returns the named gain setting. An empty name selects the
// device default.
func (v Variant) Fullscale(name string) (Fullscale, error) {
	if name == "" {
		name = v.DefaultFullscale
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, fs := range v.Fullscales {
		if fs.Name == name {
			return fs, nil
		}
	}
	return Fullscale{}, fmt.Errorf("%s: unsupported fullscale %q", v.Name, name)
}

// CheckRate validates an ODRates index for this device.
func (v Variant) CheckRate(rate int) error {
	if rate < 0 || rate > v.MaxRate {
		return fmt.Errorf("%s: output rate index %d out of range 0-%d", v.Name, rate, v.MaxRate)
	}
	return nil
}

// RegisterWrite is one register/value pair of the setup sequence.
type RegisterWrite struct {
	Reg   byte
	Value byte
}

// SetupSequence returns the three writes that put the device into
// continuous measurement at the given rate and gain.
func (v Variant) SetupSequence(rate int, fs Fullscale) [3]RegisterWrite {
	return [3]RegisterWrite{
		{RegCRA, byte(rate) << rateShift},
		{RegCRB, fs.Code << gainShift},
		{RegMR, ModeContinuous},
	}
}
