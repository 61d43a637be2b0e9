// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/onewire"
	"periph.io/x/conn/v3/onewire/onewirereg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/devices/v3/ds18b20"
	"periph.io/x/host/v3"
)

// envSensor is what both periph temperature drivers provide.
type envSensor interface {
	Sense(e *physic.Env) error
}

// Thermometer reads air temperature from a periph environmental sensor.
type Thermometer struct {
	name string
	dev  envSensor
	bus  onewire.BusCloser // only set for DS18B20
}

// NewDS18B20 opens a DS18B20 on the named 1-wire bus. With addr 0 the
// first device found on the bus is used.
func NewDS18B20(busName string, addr uint64, resolutionBits int, log *slog.Logger) (*Thermometer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ds18b20: periph host init: %w", err)
	}

	bus, err := onewirereg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("ds18b20: open 1-wire bus %q: %w", busName, err)
	}

	addr, err = resolveDS18B20(bus, busName, addr, log)
	if err != nil {
		bus.Close()
		return nil, err
	}

	dev, err := ds18b20.New(bus, onewire.Address(addr), resolutionBits)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("ds18b20: init %#016x: %w", addr, err)
	}
	return &Thermometer{name: "ds18b20", dev: dev, bus: bus}, nil
}

// NewBMX280 opens a BME280/BMP280 on an already opened I2C bus.
func NewBMX280(bus i2c.Bus, addr uint16) (*Thermometer, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bmxx80: init 0x%02X: %w", addr, err)
	}
	return &Thermometer{name: "bmxx80", dev: dev}, nil
}

// searcher is the bus enumeration part of onewire.Bus.
type searcher interface {
	Search(alarmOnly bool) ([]onewire.Address, error)
}

// resolveDS18B20 returns addr, or the first device on the bus when addr
// is 0.
func resolveDS18B20(bus searcher, busName string, addr uint64, log *slog.Logger) (uint64, error) {
	if addr != 0 {
		return addr, nil
	}
	addrs, err := bus.Search(false)
	if err != nil {
		return 0, fmt.Errorf("ds18b20: search bus: %w", err)
	}
	if len(addrs) == 0 {
		return 0, fmt.Errorf("ds18b20: no device on bus %q", busName)
	}
	log.Info("ds18b20: using first device on bus", "addr", fmt.Sprintf("%#016x", uint64(addrs[0])), "found", len(addrs))
	return uint64(addrs[0]), nil
}

// ReadTemperatureC triggers a conversion and returns °C.
func (t *Thermometer) ReadTemperatureC(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var e physic.Env
	if err := t.dev.Sense(&e); err != nil {
		return 0, fmt.Errorf("%s sense: %w", t.name, err)
	}
	return e.Temperature.Celsius(), nil
}

// Close releases the 1-wire bus if one was opened.
func (t *Thermometer) Close() error {
	if t.bus != nil {
		return t.bus.Close()
	}
	return nil
}
