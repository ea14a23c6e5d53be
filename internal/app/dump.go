// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/relabs-tech/geomag_logger/internal/datafile"
	"github.com/relabs-tech/geomag_logger/internal/sensors"
)

// Dump prints the data lines of a day file with the field magnitude.
func Dump(w io.Writer, path string) error {
	lines, err := datafile.ReadFile(path)
	if err != nil {
		return err
	}
	for _, l := range lines {
		norm := math.Sqrt(l.X*l.X + l.Y*l.Y + l.Z*l.Z)
		fmt.Fprintf(w, "%02d:%02d  x=%+.5f y=%+.5f z=%+.5f |B|=%.5f G\n", l.Hour, l.Minute, l.X, l.Y, l.Z, norm)
	}
	fmt.Fprintf(w, "%d minutes\n", len(lines))
	return nil
}

// DumpRegisters reads the magnetometer's registers and prints them with
// their bit field descriptions.
func DumpRegisters(w io.Writer, t sensors.Transport, addr uint16) error {
	regs, err := sensors.ReadRegisters(t, addr)
	if err != nil {
		return fmt.Errorf("cannot read registers: %w", err)
	}
	for _, r := range regs {
		fmt.Fprintf(w, "0x%02X %-10s 0x%02X %08b  %s\n", r.Address, r.Name, r.Value, r.Value, r.Description)
		for _, f := range r.BitFields {
			fmt.Fprintf(w, "     [%s] %s: %s", f.Bits, f.Name, f.Description)
			if f.Values != "" {
				fmt.Fprintf(w, " (%s)", strings.TrimSpace(f.Values))
			}
			fmt.Fprintln(w)
		}
	}
	return nil
}
