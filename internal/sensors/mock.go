// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// MockRobot stands in for all the hardware so the loop can run on a
// laptop. The crop grows MockGrowthCmPerMove with every move; temperature
// and light follow smooth daily-looking curves with a little noise.
type MockRobot struct {
	mu    sync.Mutex
	start time.Time
	rng   *rand.Rand

	GroundReferenceCm   float64
	HeightCm            float64
	MockGrowthCmPerMove float64
	MoveDuration        time.Duration
	OverloadLux         float64 // lux above this reads as overload; 0 disables
}

// NewMockRobot returns a mock with a seedling just above the height guard.
func NewMockRobot(groundReferenceCm float64, seed uint64) *MockRobot {
	return &MockRobot{
		start:               time.Now(),
		rng:                 rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		GroundReferenceCm:   groundReferenceCm,
		HeightCm:            0.5,
		MockGrowthCmPerMove: 0.05,
		MoveDuration:        50 * time.Millisecond,
		OverloadLux:         6000,
	}
}

func (m *MockRobot) elapsed() float64 {
	return time.Since(m.start).Seconds()
}

func (m *MockRobot) noise(amp float64) float64 {
	return (m.rng.Float64()*2 - 1) * amp
}

// AdvanceOneRevolution pretends to move and grows the crop a little.
func (m *MockRobot) AdvanceOneRevolution(ctx context.Context) error {
	t := time.NewTimer(m.MoveDuration)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}
	m.mu.Lock()
	m.HeightCm += m.MockGrowthCmPerMove
	m.mu.Unlock()
	return nil
}

// MeasureDistanceCm returns the distance from the sensor to the canopy.
func (m *MockRobot) MeasureDistanceCm(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GroundReferenceCm - m.HeightCm + m.noise(0.2), nil
}

// ReadTemperatureC swings between roughly 18 and 27 °C.
func (m *MockRobot) ReadTemperatureC(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return 22.5 + 4.5*math.Sin(m.elapsed()/30) + m.noise(0.1), nil
}

// ReadGasLevel returns a raw ADC-like count.
func (m *MockRobot) ReadGasLevel(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return math.Round(300 + m.noise(40)), nil
}

// ReadLux sweeps from darkness to bright sun and overloads at the peak.
func (m *MockRobot) ReadLux(ctx context.Context) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lux := 3500 + 3500*math.Sin(m.elapsed()/45) + m.noise(50)
	if lux < 0 {
		lux = 0
	}
	if m.OverloadLux > 0 && lux > m.OverloadLux {
		return 0, false, nil
	}
	return lux, true, nil
}
