// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package datafile stores averaged magnetometer samples in one text file
// per calendar day.
//
// Each file starts with a header block naming the start time and the
// fullscale value. Data lines hold the minute and the three axis values
// in Gauss.
package datafile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relabs-tech/geomag_logger/internal/mag"
)

// DirPerm is used when the data directory has to be created.
const DirPerm os.FileMode = 0o770

const filePerm os.FileMode = 0o664

// fileTimeFormat names day files YYYY_MM_DD.dat.
const fileTimeFormat = "2006_01_02"

// Writer appends samples to day files under a directory.
// It is not safe for concurrent use.
type Writer struct {
	dir       string
	fullscale float64

	// day is the day of the last header written, zero if none yet.
	day dayKey
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// NewWriter returns a Writer storing files in dir. The fullscale value in
// Gauss is recorded in every header.
func NewWriter(dir string, fullscale float64) *Writer {
	return &Writer{
		dir:       dir,
		fullscale: fullscale,
	}
}

// Dir returns the data directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the file that holds samples taken at t.
func (w *Writer) Path(t time.Time) string {
	return filepath.Join(w.dir, t.Format(fileTimeFormat)+".dat")
}

// Append writes one data line for the sample taken at ts. A header block
// comes first when ts falls on a different day than the previous
// successful header, including on the first call. The file is closed
// again before Append returns.
func (w *Writer) Append(s mag.AveragedSample, ts time.Time) (err error) {
	if err := os.MkdirAll(w.dir, DirPerm); err != nil {
		return fmt.Errorf("cannot create data directory %q: %w", w.dir, err)
	}
	path := w.Path(ts)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, filePerm)
	if err != nil {
		return fmt.Errorf("cannot open data file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cannot close data file %q: %w", path, cerr)
		}
	}()

	key := keyOf(ts)
	if key != w.day {
		if _, err := f.WriteString(Header(ts, w.fullscale)); err != nil {
			return fmt.Errorf("cannot write header to %q: %w", path, err)
		}
		w.day = key
	}
	if _, err := f.WriteString(FormatLine(s, ts)); err != nil {
		return fmt.Errorf("cannot write sample to %q: %w", path, err)
	}
	return nil
}
