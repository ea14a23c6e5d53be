// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mag holds the magnetometer sample types shared by the sampler,
// the day files and the display.
package mag

// RawReading is one burst read of the magnetometer output registers.
type RawReading struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// AveragedSample is the per-minute result of the sampler, in Gauss.
//
// Valid counts the read attempts that went into the mean. A zero Valid
// always comes with a zero triple, so callers must look at Valid before
// reading "no field" into X=Y=Z=0.
type AveragedSample struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Valid int     `json:"valid"`
}

// Axis is a bit set of sensor axes.
type Axis uint8

const (
	AxisX Axis = 1 << iota
	AxisY
	AxisZ

	AllAxes = AxisX | AxisY | AxisZ
)

// Has reports whether all axes in o are set in a.
func (a Axis) Has(o Axis) bool {
	return a&o == o
}

func (a Axis) String() string {
	s := ""
	if a.Has(AxisX) {
		s += "X"
	}
	if a.Has(AxisY) {
		s += "Y"
	}
	if a.Has(AxisZ) {
		s += "Z"
	}
	if s == "" {
		return "none"
	}
	return s
}

// ParseAxes parses a set of axis letters such as "XYZ" or "z".
// Characters other than X, Y and Z are ignored.
func ParseAxes(s string) Axis {
	var a Axis
	for _, c := range s {
		switch c {
		case 'x', 'X':
			a |= AxisX
		case 'y', 'Y':
			a |= AxisY
		case 'z', 'Z':
			a |= AxisZ
		}
	}
	return a
}
