// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"encoding/binary"
	"fmt"
	"log"
	"time"

	"github.com/relabs-tech/geomag_logger/internal/mag"
)

const (
	// DefaultSamplesPerAverage is the number of burst reads averaged into
	// one sample.
	DefaultSamplesPerAverage = 3
	// DefaultInterSampleDelay separates consecutive burst reads.
	DefaultInterSampleDelay = 250 * time.Millisecond

	shortMax  = 32767.0
	burstSize = 6
)

// SamplerConfig is fixed when the Sampler is created.
type SamplerConfig struct {
	Addr              uint16
	AxisMask          mag.Axis
	Fullscale         float64 // Gauss
	ScaleFactor       float64 // Gauss per LSB, Fullscale / 32767
	SamplesPerAverage int
	InterSampleDelay  time.Duration
}

// Opts selects the device settings for NewSampler. Zero values of the
// other fields pick the defaults; Rate is always taken as given, so 0
// means 0.75Hz. A negative InterSampleDelay means no delay.
type Opts struct {
	Rate              int    // ODRates index; use DefaultRate for 1.5Hz
	Fullscale         string // e.g. "1.3G"; empty selects the device default
	AxisMask          mag.Axis
	SamplesPerAverage int
	InterSampleDelay  time.Duration
	// Sleep waits between burst reads. It's overridden in tests and in
	// simulation mode. If nil, time.Sleep is used.
	Sleep func(time.Duration)
}

// SetupError reports which of the three configuration writes failed.
type SetupError struct {
	Step int // 1..3
	Reg  byte
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup step %d (%s): %v", e.Step, RegisterName(e.Reg), e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// Stats counts burst reads over the lifetime of a Sampler.
type Stats struct {
	Reads  uint64
	Failed uint64
}

// Sampler configures a magnetometer once and then produces averaged
// samples on demand.
type Sampler struct {
	bus     Transport
	variant Variant
	cfg     SamplerConfig
	setup   [3]RegisterWrite
	sleep   func(time.Duration)
	stats   Stats
}

// NewSampler validates opts against the device variant. It does not touch
// the bus; call Setup for that.
func NewSampler(bus Transport, v Variant, opts Opts) (*Sampler, error) {
	if err := v.CheckRate(opts.Rate); err != nil {
		return nil, err
	}
	fs, err := v.Fullscale(opts.Fullscale)
	if err != nil {
		return nil, err
	}
	if opts.AxisMask == 0 {
		opts.AxisMask = mag.AllAxes
	}
	if opts.SamplesPerAverage <= 0 {
		opts.SamplesPerAverage = DefaultSamplesPerAverage
	}
	switch {
	case opts.InterSampleDelay == 0:
		opts.InterSampleDelay = DefaultInterSampleDelay
	case opts.InterSampleDelay < 0:
		opts.InterSampleDelay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &Sampler{
		bus:     bus,
		variant: v,
		cfg: SamplerConfig{
			Addr:              v.Addr,
			AxisMask:          opts.AxisMask,
			Fullscale:         fs.Gauss,
			ScaleFactor:       fs.Gauss / shortMax,
			SamplesPerAverage: opts.SamplesPerAverage,
			InterSampleDelay:  opts.InterSampleDelay,
		},
		setup: v.SetupSequence(opts.Rate, fs),
		sleep: opts.Sleep,
	}, nil
}

// Config returns the sampler configuration.
func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// Stats returns the read counters.
func (s *Sampler) Stats() Stats {
	return s.stats
}

// Setup writes the rate, gain and mode registers, in that order.
// The first failing write aborts the sequence.
func (s *Sampler) Setup() error {
	for i, w := range s.setup {
		if err := s.bus.WriteRegister(s.cfg.Addr, w.Reg, w.Value); err != nil {
			return &SetupError{Step: i + 1, Reg: w.Reg, Err: err}
		}
		log.Printf("sampler: %s %s <- 0x%02X", s.variant.Name, RegisterName(w.Reg), w.Value)
	}
	log.Printf("sampler: %s at 0x%02X in continuous mode, fullscale %.2fG, %d reads per sample",
		s.variant.Name, s.cfg.Addr, s.cfg.Fullscale, s.cfg.SamplesPerAverage)
	return nil
}

// Sample takes SamplesPerAverage burst reads and averages the ones that
// succeeded. Failed reads are logged and left out of the mean; they never
// abort the remaining reads. With no successful read the result is the
// zero triple with Valid == 0.
func (s *Sampler) Sample() mag.AveragedSample {
	n := s.cfg.SamplesPerAverage
	var sx, sy, sz float64
	valid := 0
	for i := 0; i < n; i++ {
		raw, err := s.read()
		s.stats.Reads++
		if err != nil {
			s.stats.Failed++
			log.Printf("sampler: read %d/%d failed: %v", i+1, n, err)
		} else {
			sx += float64(raw.X) * s.cfg.ScaleFactor
			sy += float64(raw.Y) * s.cfg.ScaleFactor
			sz += float64(raw.Z) * s.cfg.ScaleFactor
			valid++
		}
		if i < n-1 {
			s.sleep(s.cfg.InterSampleDelay)
		}
	}
	out := mag.AveragedSample{Valid: valid}
	if valid == 0 {
		return out
	}
	div := float64(valid)
	if s.cfg.AxisMask.Has(mag.AxisX) {
		out.X = sx / div
	}
	if s.cfg.AxisMask.Has(mag.AxisY) {
		out.Y = sy / div
	}
	if s.cfg.AxisMask.Has(mag.AxisZ) {
		out.Z = sz / div
	}
	return out
}

func (s *Sampler) read() (mag.RawReading, error) {
	b, err := s.bus.ReadBurst(s.cfg.Addr, RegDataOut, burstSize)
	if err != nil {
		return mag.RawReading{}, err
	}
	return DecodeReading(b)
}

// DecodeReading interprets the six output bytes as big-endian signed
// X, Y and Z values.
func DecodeReading(b []byte) (mag.RawReading, error) {
	if len(b) != burstSize {
		return mag.RawReading{}, fmt.Errorf("short burst: got %d bytes, want %d", len(b), burstSize)
	}
	return mag.RawReading{
		X: int16(binary.BigEndian.Uint16(b[0:2])),
		Y: int16(binary.BigEndian.Uint16(b[2:4])),
		Z: int16(binary.BigEndian.Uint16(b[4:6])),
	}, nil
}
