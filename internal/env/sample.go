// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package env

// Height is a single crop height measurement taken from above the bed.
// GroundReferenceCm is the sensor-to-ground distance fixed at startup.
type Height struct {
	GroundReferenceCm  float64 `json:"ground_ref_cm"`
	MeasuredDistanceCm float64 `json:"distance_cm"`
}

// CurrentHeightCm is the crop height under the sensor.
func (h Height) CurrentHeightCm() float64 {
	return h.GroundReferenceCm - h.MeasuredDistanceCm
}

// Temperature is a single air temperature reading in °C.
type Temperature struct {
	Celsius float64 `json:"temp_c"`
}

// Gas is a raw air-quality reading. It is reported as-is, never classified.
type Gas struct {
	Level float64 `json:"level"`
}

// Light is a single illuminance reading. Valid is false when the sensor
// saturated and no lux value could be computed.
type Light struct {
	Lux   float64 `json:"lux"`
	Valid bool    `json:"valid"`
}

// LightOf wraps the (lux, ok) pair returned by light drivers.
func LightOf(lux float64, ok bool) Light {
	if !ok {
		return Light{}
	}
	return Light{Lux: lux, Valid: true}
}
