// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package daybuf keeps the samples of the current day in memory, one slot
// per minute.
package daybuf

import (
	"time"

	"github.com/relabs-tech/geomag_logger/internal/mag"
)

// Size is the number of minutes in a day.
const Size = 24 * 60

// Buffer holds one sample per minute of the day. Slots are overwritten in
// place, so after midnight the buffer mixes today's and yesterday's
// values until every minute has been recorded again.
type Buffer struct {
	slots [Size]mag.AveragedSample
	set   [Size]bool
}

// MinuteOfDay returns the slot index for t: hour*60+minute.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// Record stores s in slot i. Indexes outside [0, Size) are ignored.
func (b *Buffer) Record(i int, s mag.AveragedSample) {
	if i < 0 || i >= Size {
		return
	}
	b.slots[i] = s
	b.set[i] = true
}

// At returns the sample in slot i and whether the slot was ever written.
func (b *Buffer) At(i int) (mag.AveragedSample, bool) {
	if i < 0 || i >= Size {
		return mag.AveragedSample{}, false
	}
	return b.slots[i], b.set[i]
}
