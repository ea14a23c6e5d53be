// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"image"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/geomag_logger/internal/mag"
	"github.com/relabs-tech/geomag_logger/internal/sensors"
)

// screen is implemented by *ssd1306.Dev.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// StatusDisplay shows the last logged minute on a 128x64 OLED.
type StatusDisplay struct {
	dev screen
}

// OpenStatusDisplay initializes an SSD1306 on the magnetometer's bus and
// shows a splash screen.
func OpenStatusDisplay(bus i2c.Bus) (*StatusDisplay, error) {
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on %s", bus)
	d := &StatusDisplay{dev: dev}
	if err := d.draw([]string{"", " geomagnetic", "   logger", " waiting..."}); err != nil {
		return nil, err
	}
	return d, nil
}

// Show renders the sample logged at ts and the read counters.
func (d *StatusDisplay) Show(s mag.AveragedSample, ts time.Time, st sensors.Stats) error {
	return d.draw(statusLines(s, ts, st))
}

func statusLines(s mag.AveragedSample, ts time.Time, st sensors.Stats) []string {
	head := ts.Format("15:04")
	if s.Valid == 0 {
		head += "  no data"
	} else {
		head += fmt.Sprintf("  %d valid", s.Valid)
	}
	return []string{
		head,
		fmt.Sprintf("X %+9.5f G", s.X),
		fmt.Sprintf("Y %+9.5f G", s.Y),
		fmt.Sprintf("Z %+9.5f G", s.Z),
		fmt.Sprintf("err %d/%d", st.Failed, st.Reads),
	}
}

// draw renders up to five lines of 7x13 text.
func (d *StatusDisplay) draw(lines []string) error {
	img := renderLines(d.dev.Bounds(), lines)
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

func renderLines(r image.Rectangle, lines []string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(r)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, 12*(i+1))
		drawer.DrawString(line)
	}
	return img
}
