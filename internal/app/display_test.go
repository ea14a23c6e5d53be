// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/geomag_logger/internal/mag"
	"github.com/relabs-tech/geomag_logger/internal/sensors"
)

type fakeScreen struct {
	frames []image.Image
	err    error
}

func (f *fakeScreen) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (f *fakeScreen) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.frames = append(f.frames, src)
	return f.err
}

func litPixels(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.At(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func TestStatusLines(t *testing.T) {
	ts := time.Date(2024, 1, 1, 9, 7, 0, 0, time.UTC)
	lines := statusLines(mag.AveragedSample{X: 0.00794, Y: -0.2, Z: 0.45, Valid: 2}, ts, sensors.Stats{Reads: 30, Failed: 1})
	assert.Equal(t, []string{
		"09:07  2 valid",
		"X  +0.00794 G",
		"Y  -0.20000 G",
		"Z  +0.45000 G",
		"err 1/30",
	}, lines)

	lines = statusLines(mag.AveragedSample{}, ts, sensors.Stats{})
	assert.Equal(t, "09:07  no data", lines[0])
}

func TestStatusDisplayShow(t *testing.T) {
	scr := &fakeScreen{}
	d := &StatusDisplay{dev: scr}
	require.NoError(t, d.Show(mag.AveragedSample{X: 0.1, Valid: 3}, time.Now(), sensors.Stats{}))
	require.Len(t, scr.frames, 1)
	assert.Equal(t, scr.Bounds(), scr.frames[0].Bounds())
	assert.Greater(t, litPixels(scr.frames[0]), 0)

	scr.err = errors.New("i2c nack")
	assert.Error(t, d.Show(mag.AveragedSample{}, time.Now(), sensors.Stats{}))
}

func TestRenderLinesBlank(t *testing.T) {
	img := renderLines(image.Rect(0, 0, 128, 64), nil)
	assert.Equal(t, 0, litPixels(img))
}
