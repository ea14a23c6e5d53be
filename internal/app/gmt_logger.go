// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/geomag_logger/internal/config"
	"github.com/relabs-tech/geomag_logger/internal/datafile"
	"github.com/relabs-tech/geomag_logger/internal/daybuf"
	"github.com/relabs-tech/geomag_logger/internal/mag"
	"github.com/relabs-tech/geomag_logger/internal/ntpclock"
	"github.com/relabs-tech/geomag_logger/internal/schedule"
	"github.com/relabs-tech/geomag_logger/internal/sensors"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitBusOpen = 10
	ExitSetup   = 20
)

// DefaultSimPause is the real time one simulated minute takes.
const DefaultSimPause = 200 * time.Millisecond

// Options controls Run.
type Options struct {
	ConfigPath string
	// EnvFiles are dotenv files loaded before the GMT_* overrides are
	// applied. If empty, ".env" is tried.
	EnvFiles []string

	// Sim replaces the hardware bus with a simulated magnetometer and
	// the wall clock with an accelerated one.
	Sim      bool
	SimPause time.Duration

	// OpenBus opens the named I²C bus. If nil, sensors.OpenBus is used.
	OpenBus func(name string) (i2c.BusCloser, error)
}

// sampler is the part of *sensors.Sampler the logging loop uses.
type sampler interface {
	Sample() mag.AveragedSample
	Stats() sensors.Stats
}

// Logger holds everything one logging cycle touches.
type Logger struct {
	sampler sampler
	clock   schedule.Clock
	writer  *datafile.Writer
	buf     *daybuf.Buffer
	display *StatusDisplay

	cycles  int
	dropped int
}

// NewLogger returns a Logger. display may be nil.
func NewLogger(s sampler, c schedule.Clock, w *datafile.Writer, display *StatusDisplay) *Logger {
	return &Logger{
		sampler: s,
		clock:   c,
		writer:  w,
		buf:     &daybuf.Buffer{},
		display: display,
	}
}

// Buffer returns the in-memory day buffer.
func (l *Logger) Buffer() *daybuf.Buffer {
	return l.buf
}

// Cycle takes one averaged sample, stores it in the day file and in the
// buffer, and refreshes the display. A failed write drops the minute.
func (l *Logger) Cycle(ctx context.Context) {
	s := l.sampler.Sample()
	now := l.clock.Now()
	l.cycles++

	if s.Valid == 0 {
		log.Printf("gmt: %s no valid reading, logging zeros", now.Format("15:04"))
	}
	if err := l.writer.Append(s, now); err != nil {
		l.dropped++
		log.Printf("datafile: %v, minute %s dropped", err, now.Format("15:04"))
	}
	l.buf.Record(daybuf.MinuteOfDay(now), s)

	if l.display != nil {
		if err := l.display.Show(s, now, l.sampler.Stats()); err != nil {
			log.Printf("display: %v", err)
		}
	}
}

// LoadConfig reads the configuration file, applies the environment
// overrides and logs every notice. It never fails.
func LoadConfig(path string, envFiles ...string) *config.Config {
	cfg, notices := config.Load(path)
	notices = append(notices, config.ApplyEnv(cfg, envFiles...)...)
	for _, n := range notices {
		log.Printf("config: %s", n)
	}
	return cfg
}

// Run loads the configuration, brings up the sensor and logs one sample
// per minute until ctx is cancelled. It returns the process exit status.
func Run(ctx context.Context, opts Options) int {
	if opts.ConfigPath == "" {
		opts.ConfigPath = config.DefaultPath
	}
	cfg := LoadConfig(opts.ConfigPath, opts.EnvFiles...)
	log.Printf("gmt: %s", cfg)

	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}

	var bus i2c.BusCloser
	if opts.Sim {
		bus = newSimBus(cfg)
		log.Printf("gmt: simulation mode, bus %s", bus)
	} else {
		open := opts.OpenBus
		if open == nil {
			open = sensors.OpenBus
		}
		bus, err = open(cfg.Bus)
		if err != nil {
			log.Printf("gmt: %v", err)
			return ExitBusOpen
		}
	}
	defer bus.Close()

	clock, closeClock := newClock(cfg, opts, loc)
	defer closeClock()

	sleep := time.Sleep
	if sc, ok := clock.(*schedule.SimClock); ok {
		sleep = sc.Advance
	}
	variant := cfg.Variant()
	s, err := sensors.NewSampler(sensors.NewRegisterBus(bus), variant, sensors.Opts{
		Rate:      cfg.Rate,
		Fullscale: cfg.Fullscale,
		AxisMask:  cfg.Axes,
		Sleep:     sleep,
	})
	if err != nil {
		log.Printf("gmt: %v", err)
		return ExitSetup
	}
	if err := s.Setup(); err != nil {
		var serr *sensors.SetupError
		if errors.As(err, &serr) {
			log.Printf("gmt: %s configuration failed at step %d of 3: %v", variant.Name, serr.Step, serr.Err)
		} else {
			log.Printf("gmt: %s configuration failed: %v", variant.Name, err)
		}
		return ExitSetup
	}

	var display *StatusDisplay
	if cfg.Display {
		display, err = OpenStatusDisplay(bus)
		if err != nil {
			log.Printf("display: %v, continuing without it", err)
			display = nil
		}
	}

	l := NewLogger(s, clock, datafile.NewWriter(cfg.DataPath, s.Config().Fullscale), display)
	log.Printf("gmt: logging to %s", cfg.DataPath)
	err = schedule.New(clock).Run(ctx, l.Cycle)
	st := s.Stats()
	log.Printf("gmt: stopping after %d cycles (%d dropped), %d reads, %d failed: %v",
		l.cycles, l.dropped, st.Reads, st.Failed, err)
	return ExitOK
}

// Earth's field at mid latitudes, roughly 0.2G north, 0.45G down.
var simField = [3]float64{0.20, -0.05, 0.45}

func newSimBus(cfg *config.Config) *sensors.SimBus {
	v := cfg.Variant()
	fs, err := v.Fullscale(cfg.Fullscale)
	if err != nil {
		fs, _ = v.Fullscale("")
	}
	var counts [3]int16
	for i, g := range simField {
		counts[i] = int16(g / fs.Gauss * 32767)
	}
	return sensors.NewSimBus(v.Addr, counts, 40, uint64(time.Now().UnixNano()))
}

func newClock(cfg *config.Config, opts Options, loc *time.Location) (schedule.Clock, func()) {
	if opts.Sim {
		c := schedule.NewSimClock(time.Now().In(loc))
		c.Pause = opts.SimPause
		if c.Pause == 0 {
			c.Pause = DefaultSimPause
		}
		return c, func() {}
	}
	if cfg.NTPHost != "" {
		c, err := ntpclock.New(ntpclock.Params{Host: cfg.NTPHost, Location: loc})
		if err == nil {
			log.Printf("gmt: using NTP time from %s (offset %v)", cfg.NTPHost, c.Offset())
			return c, c.Close
		}
		log.Printf("gmt: %v, using the system clock", err)
	}
	return schedule.WallClock{Location: loc}, func() {}
}
