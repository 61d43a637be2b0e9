// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package growth tracks crop age and the height expected from a linear
// growth model.
package growth

import (
	"fmt"
	"sync"
)

// DefaultRateCmPerDay is the linear growth rate of the model.
const DefaultRateCmPerDay = 1.8

// ExpectedHeightCm returns rate * days.
func ExpectedHeightCm(rateCmPerDay float64, days int) float64 {
	return rateCmPerDay * float64(days)
}

// Tracker owns the elapsed day count. Days only move through AdvanceDay or
// SetElapsedDays; the control loop reads them once per iteration.
// Day-advance events may arrive from another goroutine (MQTT, ticker),
// so access is guarded.
type Tracker struct {
	mu   sync.RWMutex
	rate float64
	days int
}

// NewTracker returns a tracker starting at startDays.
func NewTracker(rateCmPerDay float64, startDays int) (*Tracker, error) {
	if startDays < 0 {
		return nil, fmt.Errorf("elapsed days must be >= 0, got %d", startDays)
	}
	if rateCmPerDay < 0 {
		return nil, fmt.Errorf("growth rate must be >= 0, got %v", rateCmPerDay)
	}
	return &Tracker{rate: rateCmPerDay, days: startDays}, nil
}

// ElapsedDays returns the current day count.
func (t *Tracker) ElapsedDays() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.days
}

// ExpectedHeightCm returns the modelled height for the current day count.
func (t *Tracker) ExpectedHeightCm() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return ExpectedHeightCm(t.rate, t.days)
}

// AdvanceDay adds one day and returns the new count.
func (t *Tracker) AdvanceDay() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.days++
	return t.days
}

// SetElapsedDays overrides the day count, e.g. after replanting.
func (t *Tracker) SetElapsedDays(days int) error {
	if days < 0 {
		return fmt.Errorf("elapsed days must be >= 0, got %d", days)
	}
	t.mu.Lock()
	t.days = days
	t.mu.Unlock()
	return nil
}
