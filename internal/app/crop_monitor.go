// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/crop_monitor/internal/config"
	"github.com/relabs-tech/crop_monitor/internal/control"
	"github.com/relabs-tech/crop_monitor/internal/sensors"
)

// RunCropMonitor runs the control loop against the robot's hardware.
func RunCropMonitor() error {
	cfg := config.Get()
	log := NewLogger(cfg.LogLevel)

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("open I2C bus %q: %w", cfg.I2CBus, err)
	}

	s := &session{log: log, closers: []io.Closer{bus}}
	defer s.close()

	stepA, err := sensors.NewStepper("A", cfg.StepperAPins, cfg.StepDelay())
	if err != nil {
		return err
	}
	stepB, err := sensors.NewStepper("B", cfg.StepperBPins, cfg.StepDelay())
	if err != nil {
		return err
	}
	gantry := sensors.NewGantry(stepA, stepB, cfg.StepsPerRevolution)
	s.closers = append(s.closers, closerFunc(gantry.Release))

	ranger, err := sensors.NewHCSR04(cfg.HCSR04TriggerPin, cfg.HCSR04EchoPin, cfg.HCSR04EchoTimeout(), cfg.SpeedOfSoundCmPerUs)
	if err != nil {
		return err
	}

	var thermo *sensors.Thermometer
	switch cfg.TempSensor {
	case config.TempSensorBMX280:
		thermo, err = sensors.NewBMX280(bus, cfg.BMX280I2CAddr)
	default:
		thermo, err = sensors.NewDS18B20(cfg.DS18B20OneWireBus, cfg.DS18B20Address, cfg.DS18B20ResolutionBits, log)
	}
	if err != nil {
		return err
	}
	s.closers = append(s.closers, thermo)

	gas, err := sensors.NewADS1115(bus, cfg.ADS1115I2CAddr, cfg.GasADCChannel)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, gas)
	light, err := sensors.NewTSL2561(bus, cfg.TSL2561I2CAddr)
	if err != nil {
		return err
	}

	if err := s.connect(cfg); err != nil {
		return err
	}
	sinks, err := s.buildSinks(cfg, bus)
	if err != nil {
		return err
	}

	loop, err := newLoop(cfg, control.Collaborators{
		Actuator:    gantry,
		Distance:    ranger,
		Temperature: thermo,
		Gas:         gas,
		Light:       light,
		Reporter:    sinks,
	}, log)
	if err != nil {
		return err
	}

	log.Info("crop monitor started", "i2c", cfg.I2CBus, "temp_sensor", cfg.TempSensor)
	return s.run(cfg, loop)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
