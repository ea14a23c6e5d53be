// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/geomag_logger/internal/mag"
)

const scale13 = 1.3 / 32767.0

var errBus = errors.New("bus error")

// fakeTransport serves canned burst reads; a nil reading entry fails.
type fakeTransport struct {
	reads     []*mag.RawReading
	n         int
	writes    []RegisterWrite
	failWrite int // 1-based index of the write to fail
}

func (f *fakeTransport) WriteRegister(addr uint16, reg, value byte) error {
	f.writes = append(f.writes, RegisterWrite{reg, value})
	if len(f.writes) == f.failWrite {
		return errBus
	}
	return nil
}

func (f *fakeTransport) ReadBurst(addr uint16, start byte, count int) ([]byte, error) {
	if f.n >= len(f.reads) {
		return nil, errBus
	}
	r := f.reads[f.n]
	f.n++
	if r == nil {
		return nil, errBus
	}
	return encode(*r), nil
}

func encode(r mag.RawReading) []byte {
	return []byte{
		byte(uint16(r.X) >> 8), byte(r.X),
		byte(uint16(r.Y) >> 8), byte(r.Y),
		byte(uint16(r.Z) >> 8), byte(r.Z),
	}
}

func raw(x, y, z int16) *mag.RawReading {
	return &mag.RawReading{X: x, Y: y, Z: z}
}

func newTestSampler(t *testing.T, tr Transport, opts Opts) (*Sampler, *[]time.Duration) {
	var slept []time.Duration
	opts.Sleep = func(d time.Duration) { slept = append(slept, d) }
	s, err := NewSampler(tr, LSM303, opts)
	require.NoError(t, err)
	return s, &slept
}

func TestSamplerSetupWritesRegisters(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		opts    Opts
		ops     []i2ctest.IO
	}{
		{
			name:    "lsm303 defaults",
			variant: LSM303,
			opts:    Opts{Rate: DefaultRate},
			ops: []i2ctest.IO{
				{Addr: 0x1E, W: []byte{0x00, 0x04}},
				{Addr: 0x1E, W: []byte{0x01, 0x20}},
				{Addr: 0x1E, W: []byte{0x02, 0x00}},
			},
		},
		{
			name:    "hmc5883 defaults",
			variant: HMC5883,
			opts:    Opts{Rate: DefaultRate},
			ops: []i2ctest.IO{
				{Addr: 0x1E, W: []byte{0x00, 0x04}},
				{Addr: 0x1E, W: []byte{0x01, 0x00}},
				{Addr: 0x1E, W: []byte{0x02, 0x00}},
			},
		},
		{
			name:    "lsm303 15Hz 4.0G",
			variant: LSM303,
			opts:    Opts{Rate: 4, Fullscale: "4.0g"},
			ops: []i2ctest.IO{
				{Addr: 0x1E, W: []byte{0x00, 0x10}},
				{Addr: 0x1E, W: []byte{0x01, 0x80}},
				{Addr: 0x1E, W: []byte{0x02, 0x00}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &i2ctest.Playback{Ops: tt.ops}
			s, err := NewSampler(NewRegisterBus(bus), tt.variant, tt.opts)
			require.NoError(t, err)
			require.NoError(t, s.Setup())
			require.NoError(t, bus.Close(), "all setup writes should be issued")
		})
	}
}

func TestSamplerSetupFailureReportsStep(t *testing.T) {
	for step := 1; step <= 3; step++ {
		tr := &fakeTransport{failWrite: step}
		s, _ := newTestSampler(t, tr, Opts{Rate: DefaultRate})

		err := s.Setup()
		require.Error(t, err)

		var se *SetupError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, step, se.Step)
		assert.ErrorIs(t, err, errBus)
		assert.Len(t, tr.writes, step, "no writes after the failing one")
	}
}

func TestSamplerSampleOverPlayback(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1E, W: []byte{0x03}, R: []byte{0x00, 0x64, 0x00, 0x64, 0x00, 0x64}},
		{Addr: 0x1E, W: []byte{0x03}, R: []byte{0x00, 0xC8, 0x00, 0xC8, 0x00, 0xC8}},
		{Addr: 0x1E, W: []byte{0x03}, R: []byte{0x01, 0x2C, 0x01, 0x2C, 0x01, 0x2C}},
	}}
	s, slept := newTestSampler(t, NewRegisterBus(bus), Opts{Rate: DefaultRate, InterSampleDelay: DefaultInterSampleDelay})

	got := s.Sample()
	require.NoError(t, bus.Close())

	want := 200 * scale13
	assert.Equal(t, 3, got.Valid)
	assert.InDelta(t, want, got.X, 1e-12)
	assert.InDelta(t, want, got.Y, 1e-12)
	assert.InDelta(t, want, got.Z, 1e-12)
	assert.InDelta(t, 0.00794, got.X, 1e-5)
	assert.Equal(t, []time.Duration{DefaultInterSampleDelay, DefaultInterSampleDelay}, *slept,
		"delay between reads, none after the last")
}

func TestSamplerAveraging(t *testing.T) {
	tests := []struct {
		name  string
		reads []*mag.RawReading
		want  mag.AveragedSample
	}{
		{
			name:  "all valid",
			reads: []*mag.RawReading{raw(100, -50, 10), raw(200, -150, 20), raw(300, -250, 30)},
			want:  mag.AveragedSample{X: 200 * scale13, Y: -150 * scale13, Z: 20 * scale13, Valid: 3},
		},
		{
			name:  "second read fails",
			reads: []*mag.RawReading{raw(100, 0, 0), nil, raw(300, 0, 0)},
			want:  mag.AveragedSample{X: 200 * scale13, Valid: 2},
		},
		{
			name:  "only one valid",
			reads: []*mag.RawReading{nil, nil, raw(-32768, 32767, 1)},
			want:  mag.AveragedSample{X: -32768 * scale13, Y: 1.3, Z: scale13, Valid: 1},
		},
		{
			name:  "none valid",
			reads: []*mag.RawReading{nil, nil, nil},
			want:  mag.AveragedSample{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{reads: tt.reads}
			s, _ := newTestSampler(t, tr, Opts{Rate: DefaultRate})

			got := s.Sample()
			assert.Equal(t, tt.want.Valid, got.Valid)
			assert.InDelta(t, tt.want.X, got.X, 1e-12)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-12)
			assert.InDelta(t, tt.want.Z, got.Z, 1e-12)
			assert.Equal(t, 3, tr.n, "every attempt is made even after failures")
		})
	}
}

func TestSamplerZeroValidIsExactlyZero(t *testing.T) {
	tr := &fakeTransport{}
	s, _ := newTestSampler(t, tr, Opts{Rate: DefaultRate})
	assert.Equal(t, mag.AveragedSample{}, s.Sample())
	assert.Equal(t, Stats{Reads: 3, Failed: 3}, s.Stats())
}

func TestSamplerAxisMask(t *testing.T) {
	tr := &fakeTransport{reads: []*mag.RawReading{raw(10, 20, 30), raw(10, 20, 30), raw(10, 20, 30)}}
	s, _ := newTestSampler(t, tr, Opts{Rate: DefaultRate, AxisMask: mag.AxisZ})

	got := s.Sample()
	assert.Equal(t, 3, got.Valid)
	assert.Zero(t, got.X)
	assert.Zero(t, got.Y)
	assert.InDelta(t, 30*scale13, got.Z, 1e-12)
}

func TestSamplerConfig(t *testing.T) {
	s, err := NewSampler(&fakeTransport{}, HMC5883, Opts{})
	require.NoError(t, err)
	cfg := s.Config()
	assert.Equal(t, uint16(0x1E), cfg.Addr)
	assert.Equal(t, mag.AllAxes, cfg.AxisMask)
	assert.Equal(t, 0.88, cfg.Fullscale)
	assert.InDelta(t, 0.88/32767.0, cfg.ScaleFactor, 1e-15)
	assert.Equal(t, DefaultSamplesPerAverage, cfg.SamplesPerAverage)
	assert.Equal(t, DefaultInterSampleDelay, cfg.InterSampleDelay)
}

func TestSamplerZeroRateIsSlowest(t *testing.T) {
	bus := &i2ctest.Playback{Ops: []i2ctest.IO{
		{Addr: 0x1E, W: []byte{0x00, 0x00}},
		{Addr: 0x1E, W: []byte{0x01, 0x20}},
		{Addr: 0x1E, W: []byte{0x02, 0x00}},
	}}
	s, err := NewSampler(NewRegisterBus(bus), LSM303, Opts{})
	require.NoError(t, err)
	require.NoError(t, s.Setup())
	require.NoError(t, bus.Close())
}

func TestNewSamplerRejectsBadSettings(t *testing.T) {
	_, err := NewSampler(&fakeTransport{}, HMC5883, Opts{Rate: 7})
	assert.Error(t, err, "HMC5883 has no 220Hz rate")

	_, err = NewSampler(&fakeTransport{}, LSM303, Opts{Fullscale: "0.88G"})
	assert.Error(t, err, "LSM303 has no 0.88G range")

	_, err = NewSampler(&fakeTransport{}, LSM303, Opts{Rate: -1})
	assert.Error(t, err)
}

func TestDecodeReading(t *testing.T) {
	r, err := DecodeReading([]byte{0xFF, 0x9C, 0x7F, 0xFF, 0x80, 0x00})
	require.NoError(t, err)
	assert.Equal(t, mag.RawReading{X: -100, Y: 32767, Z: -32768}, r)

	_, err = DecodeReading([]byte{0x00, 0x01})
	assert.Error(t, err)
}
