// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package control

import (
	"context"
	"errors"
)

// Actuator moves the measuring head by one full revolution of both motors.
type Actuator interface {
	AdvanceOneRevolution(ctx context.Context) error
}

// DistanceDriver measures the distance from the sensor to the canopy.
type DistanceDriver interface {
	MeasureDistanceCm(ctx context.Context) (float64, error)
}

// TemperatureDriver reads air temperature.
type TemperatureDriver interface {
	ReadTemperatureC(ctx context.Context) (float64, error)
}

// GasDriver reads the raw air-quality level.
type GasDriver interface {
	ReadGasLevel(ctx context.Context) (float64, error)
}

// LightDriver reads illuminance. ok is false when the sensor overloaded.
type LightDriver interface {
	ReadLux(ctx context.Context) (lux float64, ok bool, err error)
}

// Reporter receives human-readable status lines.
type Reporter interface {
	Report(msg string)
}

// Collaborators groups the hardware the loop drives.
type Collaborators struct {
	Actuator    Actuator
	Distance    DistanceDriver
	Temperature TemperatureDriver
	Gas         GasDriver
	Light       LightDriver
	Reporter    Reporter
}

func (c Collaborators) validate() error {
	var errs []error
	if c.Actuator == nil {
		errs = append(errs, errors.New("actuator is required"))
	}
	if c.Distance == nil {
		errs = append(errs, errors.New("distance driver is required"))
	}
	if c.Temperature == nil {
		errs = append(errs, errors.New("temperature driver is required"))
	}
	if c.Gas == nil {
		errs = append(errs, errors.New("gas driver is required"))
	}
	if c.Light == nil {
		errs = append(errs, errors.New("light driver is required"))
	}
	if c.Reporter == nil {
		errs = append(errs, errors.New("reporter is required"))
	}
	return errors.Join(errs...)
}
