// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ntpclock provides an NTP-disciplined clock for the logging loop,
// for stations whose system clock can't be relied upon to stay
// synchronized.
package ntpclock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"github.com/relabs-tech/geomag_logger/internal/schedule"
)

const (
	DefaultHost           = "pool.ntp.org"
	DefaultTimeout        = 30 * time.Second
	DefaultUpdateInterval = 30 * time.Minute
)

// ntpQuery is used to query the current NTP time.
// It's overridden for tests.
var ntpQuery = ntp.QueryWithOptions

// Params holds the parameters for New.
type Params struct {
	// Host holds the NTP host to use. If empty, DefaultHost is used.
	Host string
	// Timeout bounds the initial query. If zero, DefaultTimeout is used.
	Timeout time.Duration
	// UpdateInterval is the time between re-syncs.
	// If zero, DefaultUpdateInterval is used.
	UpdateInterval time.Duration
	// Location holds the time zone for the returned times.
	// If nil, time.Local is used.
	Location *time.Location
}

// Clock reports the system time corrected by the last known NTP offset.
type Clock struct {
	host     string
	interval time.Duration
	location *time.Location
	closed   chan struct{}
	done     chan struct{}

	// mu guards the fields below it.
	mu sync.Mutex
	// offset holds the last measured difference between NTP and
	// system time.
	offset time.Duration
	// prevTime holds the previous reading returned from Now.
	prevTime time.Time
}

var _ schedule.Clock = (*Clock)(nil)

// New queries the NTP host once, failing if that doesn't succeed within
// the timeout, and then keeps re-syncing in the background until Close.
func New(p Params) (*Clock, error) {
	if p.Host == "" {
		p.Host = DefaultHost
	}
	if p.Timeout == 0 {
		p.Timeout = DefaultTimeout
	}
	if p.UpdateInterval == 0 {
		p.UpdateInterval = DefaultUpdateInterval
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	c := &Clock{
		host:     p.Host,
		interval: p.UpdateInterval,
		location: p.Location,
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := c.update(p.Timeout); err != nil {
		return nil, fmt.Errorf("cannot get time from %s: %w", p.Host, err)
	}
	go c.updater()
	return c, nil
}

// Now returns a best-effort representation of the absolute time.
// Readings never go backwards within one Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().Add(c.offset).Round(0).In(c.location)
	if t.Before(c.prevTime) {
		return c.prevTime
	}
	c.prevTime = t
	return t
}

// Offset returns the last measured NTP offset.
func (c *Clock) Offset() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offset
}

// Sleep waits in real time, which runs at the same rate as NTP time.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	return schedule.SleepContext(ctx, d)
}

// Close stops the background re-sync.
func (c *Clock) Close() {
	close(c.closed)
	<-c.done
}

func (c *Clock) updater() {
	defer close(c.done)
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-c.closed:
			return
		case <-t.C:
		}
		if err := c.update(20 * time.Second); err != nil {
			log.Printf("ntpclock: cannot update time from %s: %v", c.host, err)
		}
	}
}

func (c *Clock) update(timeout time.Duration) error {
	resp, err := ntpQuery(c.host, ntp.QueryOptions{
		Timeout: timeout,
	})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = resp.ClockOffset
	return nil
}
