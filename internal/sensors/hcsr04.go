// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// DefaultCmPerUs is the speed of sound in air at about 20 °C (cm/µs).
const DefaultCmPerUs = 0.034

// ErrNoEcho is returned when the echo edge does not arrive in time.
var ErrNoEcho = errors.New("hcsr04: no echo")

// HCSR04 measures distance with an ultrasonic ranging module.
//
// Datasheet: https://cdn.sparkfun.com/datasheets/Sensors/Proximity/HCSR04.pdf
type HCSR04 struct {
	trigger     gpio.PinOut
	echo        gpio.PinIn
	echoTimeout time.Duration // per edge; 0 means only ctx bounds the wait
	cmPerUs     float64
}

// NewHCSR04 opens the trigger and echo pins by name.
func NewHCSR04(trigger, echo string, echoTimeout time.Duration, cmPerUs float64) (*HCSR04, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hcsr04: periph host init: %w", err)
	}
	tp := gpioreg.ByName(trigger)
	if tp == nil {
		return nil, fmt.Errorf("hcsr04: no GPIO trigger pin named %q", trigger)
	}
	ep := gpioreg.ByName(echo)
	if ep == nil {
		return nil, fmt.Errorf("hcsr04: no GPIO echo pin named %q", echo)
	}
	if err := tp.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("hcsr04: trigger low: %w", err)
	}
	if cmPerUs <= 0 {
		cmPerUs = DefaultCmPerUs
	}
	return &HCSR04{trigger: tp, echo: ep, echoTimeout: echoTimeout, cmPerUs: cmPerUs}, nil
}

// MeasureDistanceCm fires one ping and times the echo pulse.
func (h *HCSR04) MeasureDistanceCm(ctx context.Context) (float64, error) {
	if err := h.echo.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return 0, fmt.Errorf("hcsr04: echo rising: %w", err)
	}

	if err := h.trigger.Out(gpio.High); err != nil {
		return 0, fmt.Errorf("hcsr04: trigger: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := h.trigger.Out(gpio.Low); err != nil {
		return 0, fmt.Errorf("hcsr04: trigger: %w", err)
	}

	if !h.echo.WaitForEdge(edgeTimeout(ctx, h.echoTimeout)) {
		return 0, h.noEcho(ctx, "pulse start")
	}
	start := time.Now()

	if err := h.echo.In(gpio.PullDown, gpio.FallingEdge); err != nil {
		return 0, fmt.Errorf("hcsr04: echo falling: %w", err)
	}
	if !h.echo.WaitForEdge(edgeTimeout(ctx, h.echoTimeout)) {
		return 0, h.noEcho(ctx, "pulse end")
	}

	return EchoToCm(time.Since(start), h.cmPerUs), nil
}

func (h *HCSR04) noEcho(ctx context.Context, what string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w (%s): %w", ErrNoEcho, what, err)
	}
	return fmt.Errorf("%w (%s)", ErrNoEcho, what)
}

// EchoToCm converts the round-trip echo time into a one-way distance.
func EchoToCm(echo time.Duration, cmPerUs float64) float64 {
	us := float64(echo) / float64(time.Microsecond)
	return us * cmPerUs / 2
}

// edgeTimeout picks the tighter of the per-edge timeout and the ctx
// deadline. A negative result tells WaitForEdge to wait forever.
func edgeTimeout(ctx context.Context, perEdge time.Duration) time.Duration {
	timeout := time.Duration(-1)
	if perEdge > 0 {
		timeout = perEdge
	}
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left < 0 {
			left = 0
		}
		if timeout < 0 || left < timeout {
			timeout = left
		}
	}
	return timeout
}
