// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package classify maps raw sensor values onto agronomic bands.
package classify

// TemperatureBand is the growth suitability of an air temperature.
type TemperatureBand int

const (
	TooLow TemperatureBand = iota
	Optimal
	TooHigh
)

func (b TemperatureBand) String() string {
	switch b {
	case TooLow:
		return "too_low"
	case Optimal:
		return "optimal"
	case TooHigh:
		return "too_high"
	}
	return "unknown"
}

// Message is the status line reported for the band.
func (b TemperatureBand) Message() string {
	switch b {
	case TooLow:
		return "Temperature is too low for optimum growth"
	case Optimal:
		return "Temperature is optimum"
	case TooHigh:
		return "Temperature is too high for optimum growth"
	}
	return "Temperature band unknown"
}

// LightBand is the amount of sunlight relative to midday sunlight.
type LightBand int

const (
	Low LightBand = iota
	Moderate
	Good
)

func (b LightBand) String() string {
	switch b {
	case Low:
		return "low"
	case Moderate:
		return "moderate"
	case Good:
		return "good"
	}
	return "unknown"
}

// Message is the status line reported for the band.
func (b LightBand) Message() string {
	switch b {
	case Low:
		return "Low light (below 40% of midday sunlight)"
	case Moderate:
		return "Moderate sunlight (40% of midday sunlight)"
	case Good:
		return "Good sunlight. Optimal for plants"
	}
	return "Light band unknown"
}

// Classifier holds the band cutoffs.
//
//	temperature: t < TempLowC → TooLow, TempLowC <= t <= TempHighC → Optimal, t > TempHighC → TooHigh
//	light:       lux <= LightLowLux → Low, LightLowLux < lux < LightGoodLux → Moderate, lux >= LightGoodLux → Good
type Classifier struct {
	TempLowC     float64
	TempHighC    float64
	LightLowLux  float64
	LightGoodLux float64
}

// Default returns the cutoffs used for leafy greens: 21-24 °C and 2000/4000 lux.
func Default() Classifier {
	return Classifier{
		TempLowC:     21,
		TempHighC:    24,
		LightLowLux:  2000,
		LightGoodLux: 4000,
	}
}

// TemperatureBand classifies celsius.
func (c Classifier) TemperatureBand(celsius float64) TemperatureBand {
	switch {
	case celsius < c.TempLowC:
		return TooLow
	case celsius > c.TempHighC:
		return TooHigh
	default:
		return Optimal
	}
}

// LightBand classifies lux. Only call it with a present reading.
func (c Classifier) LightBand(lux float64) LightBand {
	switch {
	case lux <= c.LightLowLux:
		return Low
	case lux >= c.LightGoodLux:
		return Good
	default:
		return Moderate
	}
}
