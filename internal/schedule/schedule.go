// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package schedule runs a function once per wall-clock minute.
package schedule

import (
	"context"
	"log"
	"time"
)

// Start guard: the first cycle never begins within a few seconds of a
// minute boundary.
const (
	guardBefore = 56 // seconds 56..59
	guardAfter  = 6  // seconds 0..5
)

// StartDelay returns how long to wait before the first cycle. When now is
// in the guard window around a minute boundary, that is the time until
// second 6 of the next minute; otherwise it is zero.
func StartDelay(now time.Time) time.Duration {
	sec := now.Second()
	frac := time.Duration(now.Nanosecond())
	switch {
	case sec >= guardBefore:
		return time.Duration(60-sec+guardAfter)*time.Second - frac
	case sec < guardAfter:
		return time.Duration(guardAfter-sec)*time.Second - frac
	}
	return 0
}

// NextSleep returns the wait after a cycle finished at now: the whole
// seconds left until the next minute. At second 0 it is a full minute.
func NextSleep(now time.Time) time.Duration {
	return time.Duration(60-now.Second()) * time.Second
}

// Scheduler calls a cycle function once per minute.
type Scheduler struct {
	clock Clock
}

// New returns a Scheduler using c. A nil c means the wall clock.
func New(c Clock) *Scheduler {
	if c == nil {
		c = WallClock{}
	}
	return &Scheduler{clock: c}
}

// Clock returns the scheduler's time source.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Run waits out the start guard and then calls cycle, sleeping after each
// call until the next minute boundary. It returns ctx.Err() once ctx is
// cancelled, which is checked before every cycle and during every wait.
func (s *Scheduler) Run(ctx context.Context, cycle func(ctx context.Context)) error {
	if d := StartDelay(s.clock.Now()); d > 0 {
		log.Printf("schedule: near a minute boundary, first cycle in %v", d.Round(time.Millisecond))
		if err := s.clock.Sleep(ctx, d); err != nil {
			return err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cycle(ctx)
		if err := s.clock.Sleep(ctx, NextSleep(s.clock.Now())); err != nil {
			return err
		}
	}
}
