// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// fullStep is the 4-wire full-step coil sequence (pin1..pin4).
var fullStep = [4][4]gpio.Level{
	{gpio.High, gpio.Low, gpio.High, gpio.Low},
	{gpio.Low, gpio.High, gpio.High, gpio.Low},
	{gpio.Low, gpio.High, gpio.Low, gpio.High},
	{gpio.High, gpio.Low, gpio.Low, gpio.High},
}

// Stepper drives one 4-wire stepper motor through a driver board on GPIO.
type Stepper struct {
	name      string
	pins      [4]gpio.PinOut
	stepDelay time.Duration
	phase     int
}

// NewStepper opens the four named GPIO pins.
func NewStepper(name string, pinNames []string, stepDelay time.Duration) (*Stepper, error) {
	if len(pinNames) != 4 {
		return nil, fmt.Errorf("%s stepper: need 4 pins, got %d", name, len(pinNames))
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("%s stepper: periph host init: %w", name, err)
	}

	var pins [4]gpio.PinOut
	for i, n := range pinNames {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("%s stepper: pin %q not found", name, n)
		}
		pins[i] = p
	}
	return newStepper(name, pins, stepDelay)
}

func newStepper(name string, pins [4]gpio.PinOut, stepDelay time.Duration) (*Stepper, error) {
	for i, p := range pins {
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("%s stepper: pin %d low: %w", name, i+1, err)
		}
	}
	return &Stepper{name: name, pins: pins, stepDelay: stepDelay}, nil
}

// Step moves the motor forward by steps, or backward when steps is
// negative. ctx is checked between steps.
func (s *Stepper) Step(ctx context.Context, steps int) error {
	dir := 1
	if steps < 0 {
		dir, steps = -1, -steps
	}
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s stepper: stopped after %d steps: %w", s.name, i, err)
		}
		s.phase = (s.phase + dir + 4) % 4
		if err := s.apply(fullStep[s.phase]); err != nil {
			return err
		}
		if s.stepDelay > 0 {
			time.Sleep(s.stepDelay)
		}
	}
	return nil
}

// Release de-energizes the coils.
func (s *Stepper) Release() error {
	return s.apply([4]gpio.Level{})
}

func (s *Stepper) apply(levels [4]gpio.Level) error {
	for i, p := range s.pins {
		if err := p.Out(levels[i]); err != nil {
			return fmt.Errorf("%s stepper: pin %d: %w", s.name, i+1, err)
		}
	}
	return nil
}

// Gantry moves the measuring head with two steppers, one revolution each,
// one after the other.
type Gantry struct {
	a, b        *Stepper
	stepsPerRev int
}

// NewGantry pairs two steppers.
func NewGantry(a, b *Stepper, stepsPerRev int) *Gantry {
	return &Gantry{a: a, b: b, stepsPerRev: stepsPerRev}
}

// AdvanceOneRevolution turns motor A then motor B by one revolution.
func (g *Gantry) AdvanceOneRevolution(ctx context.Context) error {
	if err := g.a.Step(ctx, g.stepsPerRev); err != nil {
		return err
	}
	return g.b.Step(ctx, g.stepsPerRev)
}

// Release de-energizes both motors.
func (g *Gantry) Release() error {
	if err := g.a.Release(); err != nil {
		return err
	}
	return g.b.Release()
}
