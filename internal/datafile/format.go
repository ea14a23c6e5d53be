// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package datafile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/relabs-tech/geomag_logger/internal/mag"
)

// ErrHeaderLine is returned by ParseLine for comment and header lines.
var ErrHeaderLine = errors.New("header line")

// Header returns the header block written at the top of a day file.
func Header(start time.Time, fullscale float64) string {
	var b strings.Builder
	b.WriteString("# -- geomagnetism data, per minute --\n")
	fmt.Fprintf(&b, "#start time : %s\n", start.Format("01.02.2006, 15:04"))
	b.WriteString("# format :\n")
	b.WriteString("# HH:MM, X_data, Y_data, Z_data\n")
	fmt.Fprintf(&b, "# fullscale value = %.5f Ga\n", fullscale)
	return b.String()
}

// FormatLine returns the data line for s taken at ts.
func FormatLine(s mag.AveragedSample, ts time.Time) string {
	return fmt.Sprintf("%02d:%02d, %.5f, %.5f, %.5f\n", ts.Hour(), ts.Minute(), s.X, s.Y, s.Z)
}

// Line is one parsed data line.
type Line struct {
	Hour, Minute int
	X, Y, Z      float64
}

// MinuteOfDay returns hour*60+minute.
func (l Line) MinuteOfDay() int {
	return l.Hour*60 + l.Minute
}

// ParseLine parses a data line as written by FormatLine. Lines starting
// with '#' yield ErrHeaderLine.
func ParseLine(line string) (Line, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return Line{}, ErrHeaderLine
	}
	fields := strings.Split(line, ",")
	if len(fields) != 4 {
		return Line{}, fmt.Errorf("want 4 comma-separated fields, got %d in %q", len(fields), line)
	}
	hh, mm, ok := strings.Cut(strings.TrimSpace(fields[0]), ":")
	if !ok {
		return Line{}, fmt.Errorf("bad time field %q", fields[0])
	}
	var l Line
	var err error
	if l.Hour, err = strconv.Atoi(hh); err != nil || l.Hour < 0 || l.Hour > 23 {
		return Line{}, fmt.Errorf("bad hour in %q", fields[0])
	}
	if l.Minute, err = strconv.Atoi(mm); err != nil || l.Minute < 0 || l.Minute > 59 {
		return Line{}, fmt.Errorf("bad minute in %q", fields[0])
	}
	vals := [3]*float64{&l.X, &l.Y, &l.Z}
	for i, p := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return Line{}, fmt.Errorf("bad axis value: %w", err)
		}
		*p = v
	}
	return l, nil
}

// ReadFile returns the data lines of a day file, skipping headers and
// blank lines.
func ReadFile(path string) ([]Line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []Line
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		l, err := ParseLine(text)
		if errors.Is(err, ErrHeaderLine) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, n, err)
		}
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	return lines, nil
}
