// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "fmt"

// BitField describes a group of bits inside a register.
type BitField struct {
	Bits        string
	Name        string
	Description string
	Values      string
}

// RegisterInfo is register metadata used for log and error messages.
type RegisterInfo struct {
	Address     byte
	Name        string
	Description string
	Access      string // "R", "W", "RW"
	BitFields   []BitField
}

// magRegisterMap lists the magnetometer registers of the LSM303DLHC.
// The HMC5883L uses the same layout for everything we touch.
var magRegisterMap = []RegisterInfo{
	{Address: 0x00, Name: "CRA_REG_M", Description: "Configuration Register A", Access: "RW",
		BitFields: []BitField{
			{Bits: "7", Name: "TEMP_EN", Description: "Temperature sensor (LSM303 only)", Values: "0=Disabled, 1=Enabled"},
			{Bits: "4:2", Name: "DO", Description: "Output data rate", Values: "0=0.75Hz, 1=1.5Hz, 2=3Hz, 3=7.5Hz, 4=15Hz, 5=30Hz, 6=75Hz, 7=220Hz"},
		}},
	{Address: 0x01, Name: "CRB_REG_M", Description: "Configuration Register B", Access: "RW",
		BitFields: []BitField{
			{Bits: "7:5", Name: "GN", Description: "Gain", Values: "LSM303: 1=±1.3G ... 7=±8.1G; HMC5883: 0=±0.88G ... 7=±8.1G"},
		}},
	{Address: 0x02, Name: "MR_REG_M", Description: "Mode Register", Access: "RW",
		BitFields: []BitField{
			{Bits: "1:0", Name: "MD", Description: "Operating mode", Values: "0=Continuous, 1=Single, 2=Sleep, 3=Sleep"},
		}},
	{Address: 0x03, Name: "OUT_X_H_M", Description: "X-Axis High Byte", Access: "R"},
	{Address: 0x04, Name: "OUT_X_L_M", Description: "X-Axis Low Byte", Access: "R"},
	{Address: 0x05, Name: "OUT_Y_H_M", Description: "Y-Axis High Byte", Access: "R"},
	{Address: 0x06, Name: "OUT_Y_L_M", Description: "Y-Axis Low Byte", Access: "R"},
	{Address: 0x07, Name: "OUT_Z_H_M", Description: "Z-Axis High Byte", Access: "R"},
	{Address: 0x08, Name: "OUT_Z_L_M", Description: "Z-Axis Low Byte", Access: "R"},
	{Address: 0x09, Name: "SR_REG_M", Description: "Status Register", Access: "R",
		BitFields: []BitField{
			{Bits: "1", Name: "LOCK", Description: "Data output register lock", Values: ""},
			{Bits: "0", Name: "DRDY", Description: "Data ready", Values: ""},
		}},
	{Address: 0x0A, Name: "IRA_REG_M", Description: "Identification Register A (0x48)", Access: "R"},
	{Address: 0x0B, Name: "IRB_REG_M", Description: "Identification Register B (0x34)", Access: "R"},
	{Address: 0x0C, Name: "IRC_REG_M", Description: "Identification Register C (0x33)", Access: "R"},
}

// RegisterName returns a printable name for a register address.
func RegisterName(addr byte) string {
	for _, r := range magRegisterMap {
		if r.Address == addr {
			return fmt.Sprintf("%s(0x%02X)", r.Name, addr)
		}
	}
	return fmt.Sprintf("0x%02X", addr)
}

// RegisterMap returns the register metadata table.
func RegisterMap() []RegisterInfo {
	return append([]RegisterInfo(nil), magRegisterMap...)
}

// RegisterValue is a register read back from the device.
type RegisterValue struct {
	RegisterInfo
	Value byte
}

// ReadRegisters reads every register in the map, one burst from the
// first address to the last.
func ReadRegisters(t Transport, addr uint16) ([]RegisterValue, error) {
	first := magRegisterMap[0].Address
	last := magRegisterMap[len(magRegisterMap)-1].Address
	b, err := t.ReadBurst(addr, first, int(last-first)+1)
	if err != nil {
		return nil, err
	}
	out := make([]RegisterValue, 0, len(magRegisterMap))
	for _, r := range magRegisterMap {
		out = append(out, RegisterValue{RegisterInfo: r, Value: b[r.Address-first]})
	}
	return out, nil
}
