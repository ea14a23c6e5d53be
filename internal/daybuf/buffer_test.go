// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package daybuf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/geomag_logger/internal/mag"
)

func TestMinuteOfDay(t *testing.T) {
	assert.Equal(t, 0, MinuteOfDay(time.Date(2024, 1, 1, 0, 0, 59, 0, time.UTC)))
	assert.Equal(t, 754, MinuteOfDay(time.Date(2024, 1, 1, 12, 34, 0, 0, time.UTC)))
	assert.Equal(t, Size-1, MinuteOfDay(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)))
}

func TestRecordAndAt(t *testing.T) {
	var b Buffer
	s := mag.AveragedSample{X: 0.1, Y: 0.2, Z: 0.3, Valid: 3}

	_, ok := b.At(10)
	assert.False(t, ok)

	b.Record(10, s)
	got, ok := b.At(10)
	assert.True(t, ok)
	assert.Equal(t, s, got)

	b.Record(10, mag.AveragedSample{})
	got, _ = b.At(10)
	assert.Equal(t, mag.AveragedSample{}, got)

	b.Record(Size-1, s)
	got, ok = b.At(Size - 1)
	assert.True(t, ok)
	assert.Equal(t, s, got)
}

func TestRecordOutOfRangeIgnored(t *testing.T) {
	var b Buffer
	s := mag.AveragedSample{X: 1, Valid: 1}
	b.Record(-1, s)
	b.Record(Size, s)
	for i := 0; i < Size; i++ {
		_, ok := b.At(i)
		assert.False(t, ok, "slot %d", i)
	}
	_, ok := b.At(Size)
	assert.False(t, ok)
}
